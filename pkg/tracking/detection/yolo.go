package detection

import (
	"fmt"
	"image"
	"os"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-turret/pkg/debug"
)

// YOLODetector runs a YOLOv8 ONNX export through OpenCV's dnn module.
type YOLODetector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

// NewYOLO loads the model at cfg.ModelPath.
func NewYOLO(cfg Config) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: failed to load YOLO model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in the JPEG image, best first.
func (d *YOLODetector) Detect(jpeg []byte) ([]Detection, error) {
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

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dets := d.parseOutput(output, float64(img.Cols()), float64(img.Rows()))
	if len(dets) > 0 {
		debug.TrackLog("YOLO detections", "count", len(dets))
	}
	return dets, nil
}

// parseOutput decodes a [1, 4+classes, N] tensor. Each column holds
// cx, cy, w, h in model input pixels followed by per-class scores.
func (d *YOLODetector) parseOutput(output gocv.Mat, imgW, imgH float64) []Detection {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil
	}
	attrs, n := sizes[1], sizes[2]
	if attrs < 5 {
		return nil
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	sx := imgW / float64(d.config.InputWidth)
	sy := imgH / float64(d.config.InputHeight)
	thresh := float32(d.config.ConfidenceThresh)

	var (
		boxes       []image.Rectangle
		confidences []float32
		classIDs    []int
	)

	for i := 0; i < n; i++ {
		maxScore := float32(0)
		maxClass := 0
		for c := 4; c < attrs; c++ {
			if score := data[c*n+i]; score > maxScore {
				maxScore = score
				maxClass = c - 4
			}
		}
		if maxScore < thresh {
			continue
		}

		cx := float64(data[0*n+i])
		cy := float64(data[1*n+i])
		w := float64(data[2*n+i])
		h := float64(data[3*n+i])

		boxes = append(boxes, image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClass)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, thresh, float32(d.config.NMSThresh))
	sort.SliceStable(indices, func(a, b int) bool {
		return confidences[indices[a]] > confidences[indices[b]]
	})

	dets := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		b := boxes[idx]
		dets = append(dets, Detection{
			Box: Box{
				X1: float64(b.Min.X),
				Y1: float64(b.Min.Y),
				X2: float64(b.Max.X),
				Y2: float64(b.Max.Y),
			},
			Confidence: float64(confidences[idx]),
			ClassID:    classIDs[idx],
			ClassName:  d.config.ClassName(classIDs[idx]),
		})
	}
	return dets
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
