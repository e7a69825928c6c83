package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"tissuemask/pkg/fcm"
	"tissuemask/pkg/gmm"
)

func bandData() []float64 {
	data := make([]float64, 0, 300)
	for _, center := range []float64{10, 100, 200} {
		for i := 0; i < 100; i++ {
			data = append(data, center+float64(i%5)-2)
		}
	}
	return data
}

// TestSaveMixtureFit verifies that a mixture diagnostic plot is written
func TestSaveMixtureFit(t *testing.T) {
	data := bandData()
	model, err := gmm.Fit(data, gmm.DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mixture.png")
	if err := SaveMixtureFit(data, model, path); err != nil {
		t.Fatalf("SaveMixtureFit failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Plot file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Plot file is empty")
	}
}

// TestSaveMembershipProfile verifies that a fuzzy profile plot is written
func TestSaveMembershipProfile(t *testing.T) {
	data := bandData()
	model, err := fcm.Fit(data, fcm.DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "profile.png")
	if err := SaveMembershipProfile(model, 0, 210, path); err != nil {
		t.Fatalf("SaveMembershipProfile failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Plot file not written: %v", err)
	}
}

// TestSaveMembershipProfileBadRange verifies the range validation
func TestSaveMembershipProfileBadRange(t *testing.T) {
	model := &fcm.Model{Centers: []float64{1, 2, 3}, Fuzziness: 2}
	if err := SaveMembershipProfile(model, 5, 5, "unused.png"); err == nil {
		t.Error("Expected error for empty intensity range, got nil")
	}
}
