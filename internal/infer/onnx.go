package infer

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// defaultInputSide is used when the model declares dynamic spatial dims.
const defaultInputSide = 256

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxSession wraps a DynamicAdvancedSession for single-image anomaly
// models: one [1,3,H,W] float32 input, one [1,1,H,W] score map output.
type onnxSession struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inputH     int
	inputW     int
}

// newONNXSession loads the anomaly model and validates its tensor layout.
// libPath empty resolves libonnxruntime.so next to the model file.
func newONNXSession(modelPath, libPath string) (*onnxSession, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected a single image input, model has %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}

	in := inputs[0]
	dims := in.Dimensions
	if len(dims) != 4 || (dims[1] != 3 && dims[1] > 0) {
		return nil, fmt.Errorf("onnx: expected NCHW image input, got dims %v", dims)
	}
	h, w := int(dims[2]), int(dims[3])
	if h <= 0 {
		h = defaultInputSide
	}
	if w <= 0 {
		w = defaultInputSide
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{in.Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &onnxSession{
		session:    session,
		inputName:  in.Name,
		outputName: outputs[0].Name,
		inputH:     h,
		inputW:     w,
	}, nil
}

// run executes one inference over a flat [1*3*H*W] tensor and returns the
// score map data flattened to [H*W].
func (s *onnxSession) run(input []float32) ([]float32, error) {
	inShape := ort.NewShape(1, 3, int64(s.inputH), int64(s.inputW))
	tIn, err := ort.NewTensor(inShape, input)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	outShape := ort.NewShape(1, 1, int64(s.inputH), int64(s.inputW))
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before the tensor is destroyed.
	src := tOut.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

// close releases the ONNX session resources.
func (s *onnxSession) close() error {
	return s.session.Destroy()
}
