package telemetry

// AimRecord is one controller tick as written to aim.csv.
type AimRecord struct {
	Tick      uint64  `csv:"tick"`
	AtMs      int64   `csv:"at_ms"`
	State     string  `csv:"state"`
	Pan       float64 `csv:"pan"`
	Tilt      float64 `csv:"tilt"`
	HasTarget bool    `csv:"has_target"`
	ErrX      float64 `csv:"err_x"`
	ErrY      float64 `csv:"err_y"`
	Fire      bool    `csv:"fire"`
	Manual    int     `csv:"manual_inputs"`
	Misses    int     `csv:"misses"`
}

// FireRecord is one fire event as written to fires.csv.
type FireRecord struct {
	ID      string  `csv:"id"`
	AtMs    int64   `csv:"at_ms"`
	Pan     float64 `csv:"pan"`
	Tilt    float64 `csv:"tilt"`
	MuzzleX float64 `csv:"muzzle_x"`
	MuzzleY float64 `csv:"muzzle_y"`
	Manual  bool    `csv:"manual"`
}
