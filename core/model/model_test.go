package model

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/mllib/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()

	if s.IsFitted() {
		t.Fatal("new state manager should not be fitted")
	}
	err := s.RequireFitted("Model", "Predict")
	var nfe *errors.NotFittedError
	if !errors.As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}

	s.SetFitted(3, 10)
	if err := s.RequireFitted("Model", "Predict"); err != nil {
		t.Errorf("unexpected error after SetFitted: %v", err)
	}
	if f, n := s.GetDimensions(); f != 3 || n != 10 {
		t.Errorf("GetDimensions() = (%d, %d), want (3, 10)", f, n)
	}

	var de *errors.DimensionError
	if err := s.RequireFeatures("Model.Predict", 2); !errors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	} else if de.Expected != 3 || de.Got != 2 {
		t.Errorf("DimensionError = %+v", de)
	}

	state := s.GetState()
	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear fitted state")
	}
	s.SetState(state)
	if !s.IsFitted() {
		t.Error("SetState should restore fitted state")
	}
}

type fakeModel struct {
	Weights []float64
}

func (m *fakeModel) SaveTo(w io.Writer) error   { return SaveModelToWriter(m, w) }
func (m *fakeModel) LoadFrom(r io.Reader) error { return LoadModelFromReader(m, r) }

func TestSnapshotRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(&fakeModel{Weights: []float64{1, 2, 3}}, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}

	var got fakeModel
	if err := LoadModelFromReader(&got, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}
	if len(got.Weights) != 3 || got.Weights[2] != 3 {
		t.Errorf("round trip mismatch: %v", got.Weights)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	if err := SaveModel(&fakeModel{Weights: []float64{0.5, -1}}, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	var got fakeModel
	if err := LoadModel(&got, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(got.Weights) != 2 || got.Weights[1] != -1 {
		t.Errorf("round trip mismatch: %v", got.Weights)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	err := LoadModel(&fakeModel{}, filepath.Join(t.TempDir(), "missing.gob"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
