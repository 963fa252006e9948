package predict

import (
	"context"
	"math"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
)

// ONNX model geometry. The model consumes a window of normalized OHLCV rows
// plus a return column and emits a single signed direction score.
const (
	onnxWindow   = 60
	onnxFeatures = 6
)

var ortInitOnce sync.Once

func initializeORT() error {
	var err error
	ortInitOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		if runtime.GOOS == "windows" {
			libPath = "onnxruntime.dll"
		} else if runtime.GOOS == "darwin" {
			libPath = "libonnxruntime.dylib"
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// ONNXScorer runs a local ONNX model for the AI direction score. Inference
// is serialized; the session reuses one pre-allocated input/output tensor
// pair across calls.
type ONNXScorer struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXScorer loads the model at the given path.
func NewONNXScorer(modelPath string) (*ONNXScorer, error) {
	if err := initializeORT(); err != nil {
		return nil, errors.NewProviderError("onnx", "initialize runtime", err)
	}

	inputShape := ort.NewShape(1, onnxWindow, onnxFeatures)
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, onnxWindow*onnxFeatures))
	if err != nil {
		return nil, errors.NewProviderError("onnx", "create input tensor", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.NewProviderError("onnx", "create output tensor", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.NewProviderError("onnx", "create session", err)
	}

	return &ONNXScorer{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

// Score runs inference over the most recent candle window and returns a
// signed direction score in [-1, 1].
func (s *ONNXScorer) Score(ctx context.Context, candles []models.Candle) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(candles) < onnxWindow {
		return 0, errors.NewInvalidInputError("candles", len(candles),
			"insufficient history for model window")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.input.GetData(), buildFeatures(candles[len(candles)-onnxWindow:]))

	if err := s.session.Run(); err != nil {
		return 0, errors.NewProviderError("onnx", "inference", err)
	}

	raw := float64(s.output.GetData()[0])
	// Squash an unbounded logit into the score range.
	return math.Tanh(raw), nil
}

// Close releases the session and its tensors.
func (s *ONNXScorer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Destroy()
	}
	if s.input != nil {
		s.input.Destroy()
	}
	if s.output != nil {
		s.output.Destroy()
	}
}

// buildFeatures normalizes a candle window into the model's input layout:
// per-row OHLC relative to the window's first close, log volume relative to
// the window mean, and the close-to-close return.
func buildFeatures(window []models.Candle) []float32 {
	base := window[0].Close
	if base == 0 {
		base = 1
	}

	var volSum float64
	for _, c := range window {
		volSum += c.Volume
	}
	volMean := volSum / float64(len(window))
	if volMean == 0 {
		volMean = 1
	}

	features := make([]float32, 0, len(window)*onnxFeatures)
	for i, c := range window {
		var ret float64
		if i > 0 && window[i-1].Close != 0 {
			ret = (c.Close - window[i-1].Close) / window[i-1].Close
		}
		features = append(features,
			float32(c.Open/base-1),
			float32(c.High/base-1),
			float32(c.Low/base-1),
			float32(c.Close/base-1),
			float32(math.Log1p(c.Volume/volMean)),
			float32(ret),
		)
	}
	return features
}
