package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrCaptureClosed is returned after Close or when the device is gone.
	ErrCaptureClosed = errors.New("camera: capture closed")
	// ErrEmptyFrame is returned when the device yields no image.
	ErrEmptyFrame = errors.New("camera: empty frame")
)

// Capture reads frames from an OpenCV video device and encodes them as JPEG.
type Capture struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	config Config
	size   image.Point
	closed bool
}

// Open starts capturing from cfg.DeviceID.
func Open(cfg Config) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
	}

	c := &Capture{vc: vc, frame: gocv.NewMat()}
	c.apply(cfg)
	return c, nil
}

// Reconfigure applies a new resolution, framerate or quality.
// Changing DeviceID reopens the device.
func (c *Capture) Reconfigure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCaptureClosed
	}

	if cfg.DeviceID != c.config.DeviceID {
		vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
		if err != nil {
			return fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
		}
		c.vc.Close()
		c.vc = vc
	}
	c.apply(cfg)
	return nil
}

// apply must be called with mu held (or before the capture is shared).
func (c *Capture) apply(cfg Config) {
	c.vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	c.vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	c.vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	c.config = cfg

	// The driver may pick the nearest supported mode.
	c.size = image.Pt(
		int(c.vc.Get(gocv.VideoCaptureFrameWidth)),
		int(c.vc.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// Size returns the last known frame size in pixels.
func (c *Capture) Size() image.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// CaptureJPEG blocks until the next frame and returns it JPEG-encoded.
func (c *Capture) CaptureJPEG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCaptureClosed
	}
	if ok := c.vc.Read(&c.frame); !ok {
		return nil, ErrCaptureClosed
	}
	if c.frame.Empty() {
		return nil, ErrEmptyFrame
	}

	if c.config.Mirror {
		gocv.Flip(c.frame, &c.frame, 1)
	}
	c.size = image.Pt(c.frame.Cols(), c.frame.Rows())

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.frame, []int{int(gocv.IMWriteJpegQuality), c.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("camera: encode: %w", err)
	}
	defer buf.Close()

	// buf memory belongs to OpenCV
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device. Further captures return ErrCaptureClosed.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.frame.Close()
	return c.vc.Close()
}
