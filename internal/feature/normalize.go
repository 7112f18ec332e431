// Package feature turns detector landmarks into the fixed-size numeric
// vectors consumed by the sequence classifier.
package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
)

// Feature layout constants.
const (
	// Axes is the number of coordinates per landmark.
	Axes = 3
	// HandSize is the length of one hand's feature vector (21 landmarks x 3 axes).
	HandSize = detector.NumLandmarks * Axes
	// MaxHands is the number of hand slots in a frame.
	MaxHands = 2
	// FrameSize is the length of one frame's feature vector.
	FrameSize = HandSize * MaxHands
)

// Vector is the translation and scale normalized encoding of one hand.
type Vector [HandSize]float32

// Normalize encodes a hand relative to its wrist, scaled by the largest
// wrist-to-landmark distance. When every landmark coincides with the wrist
// the displacements are returned unscaled.
//
// ok is false, and the vector all zero, when the hand has fewer than
// detector.NumLandmarks points or the scale is not finite.
func Normalize(points []detector.Point3D) (v Vector, ok bool) {
	if len(points) < detector.NumLandmarks {
		return Vector{}, false
	}

	wrist := points[detector.Wrist]

	var disp [detector.NumLandmarks][Axes]float64
	maxDist := 0.0
	for i := 0; i < detector.NumLandmarks; i++ {
		d := points[i].Sub(wrist)
		disp[i] = [Axes]float64{d.X, d.Y, d.Z}
		dist := floats.Norm(disp[i][:], 2)
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			return Vector{}, false
		}
		if dist > maxDist {
			maxDist = dist
		}
	}

	for i := 0; i < detector.NumLandmarks; i++ {
		if maxDist > 0 {
			floats.Scale(1/maxDist, disp[i][:])
		}
		base := i * Axes
		v[base] = float32(disp[i][0])
		v[base+1] = float32(disp[i][1])
		v[base+2] = float32(disp[i][2])
	}

	return v, true
}
