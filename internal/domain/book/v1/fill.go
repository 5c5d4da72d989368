package bookv1

// Fill records volume taken from one resting order during a matching
// walk. Timestamp is the resting order's arrival time, so consumers can
// derive queue age at execution.
type Fill struct {
	OrderID   string  `json:"orderID"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

// FilledVolume sums the volume across a sequence of fills.
func FilledVolume(fills []Fill) float64 {
	total := 0.0
	for _, f := range fills {
		total += f.Volume
	}
	return total
}
