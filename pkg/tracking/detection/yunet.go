package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-turret/pkg/debug"
)

// YuNetDetector targets faces using OpenCV's FaceDetectorYN. Every
// detection is reported as class 0.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex
}

// NewYuNet creates a YuNet face detector.
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // ONNX needs no config file
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		float32(cfg.NMSThresh),
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{detector: detector, config: cfg}, nil
}

// Detect finds faces in the JPEG image.
func (d *YuNetDetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(img, &faces)

	// rows: x, y, w, h, 5 landmark pairs, score
	var dets []Detection
	for r := 0; r < faces.Rows(); r++ {
		x := float64(faces.GetFloatAt(r, 0))
		y := float64(faces.GetFloatAt(r, 1))
		w := float64(faces.GetFloatAt(r, 2))
		h := float64(faces.GetFloatAt(r, 3))
		dets = append(dets, Detection{
			Box:        Box{X1: x, Y1: y, X2: x + w, Y2: y + h},
			Confidence: float64(faces.GetFloatAt(r, 14)),
			ClassID:    0,
			ClassName:  d.config.ClassName(0),
		})
	}

	if len(dets) > 0 {
		debug.TrackLog("YuNet detections", "count", len(dets))
	}
	return dets, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
