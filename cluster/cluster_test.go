package cluster

import (
	"testing"

	"github.com/vishalbelsare/DIAMONDS/metric"
	"github.com/vishalbelsare/DIAMONDS/rng"
)

func twoBlobs() [][]float64 {
	var pts [][]float64
	for i := 0; i < 20; i++ {
		pts = append(pts, []float64{float64(i%3) * 0.1, float64(i%3) * 0.1})
	}
	for i := 0; i < 20; i++ {
		pts = append(pts, []float64{10 + float64(i%3)*0.1, 10 + float64(i%3)*0.1})
	}
	return pts
}

func TestClusterFindsTwoBlobs(t *testing.T) {
	s := rng.New(1)
	a, err := Cluster(twoBlobs(), 1, 4, 5, 1e-6, metric.Euclidean{}, s)
	if err != nil {
		t.Fatal(err)
	}
	if a.K != 2 {
		t.Fatalf("K = %d, want 2", a.K)
	}
	if len(a.Labels) != 40 {
		t.Fatalf("len(Labels) = %d, want 40", len(a.Labels))
	}
	first := a.Labels[0]
	for i := 0; i < 20; i++ {
		if a.Labels[i] != first {
			t.Fatalf("point %d in blob 1 mislabeled", i)
		}
	}
	second := a.Labels[20]
	if second == first {
		t.Fatalf("blobs merged into one cluster")
	}
	for i := 20; i < 40; i++ {
		if a.Labels[i] != second {
			t.Fatalf("point %d in blob 2 mislabeled", i)
		}
	}
}

func TestClusterNoEmptyClusters(t *testing.T) {
	s := rng.New(2)
	a, err := Cluster(twoBlobs(), 1, 6, 3, 1e-6, metric.Euclidean{}, s)
	if err != nil {
		t.Fatal(err)
	}
	counts := make([]int, a.K)
	for _, l := range a.Labels {
		counts[l]++
	}
	for j, c := range counts {
		if c == 0 {
			t.Fatalf("cluster %d is empty", j)
		}
	}
}

func TestClusterRejectsEmptyInput(t *testing.T) {
	s := rng.New(3)
	if _, err := Cluster(nil, 1, 2, 1, 1e-6, metric.Euclidean{}, s); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestClusterSingleKBoundary(t *testing.T) {
	s := rng.New(4)
	a, err := Cluster(twoBlobs(), 1, 1, 1, 1e-6, metric.Euclidean{}, s)
	if err != nil {
		t.Fatal(err)
	}
	if a.K != 1 {
		t.Fatalf("K = %d, want 1 (K_max=1 boundary)", a.K)
	}
}
