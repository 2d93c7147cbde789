package phy

// Interpolator upsamples baseband samples to the receiver's working rate
// using a polyphase decomposition of the root-raised-cosine prototype in
// the config. The filter introduces a fixed group delay of
// cfg.GroupDelay output samples; downstream timestamping corrects for it.
type Interpolator struct {
	cfg  *ReceiverConfig
	arms [][]float64
}

// NewInterpolator builds the polyphase filter bank for cfg. With an
// interpolation factor of 1 the interpolator is a pass-through.
func NewInterpolator(cfg *ReceiverConfig) *Interpolator {
	ip := &Interpolator{cfg: cfg}
	if cfg.InterpFactor <= 1 {
		return ip
	}

	factor := cfg.InterpFactor
	ip.arms = make([][]float64, factor)
	for p := 0; p < factor; p++ {
		for k := p; k < len(cfg.RRCTaps); k += factor {
			ip.arms[p] = append(ip.arms[p], cfg.RRCTaps[k])
		}
	}
	return ip
}

// Process returns the interpolated sequence for in. Output length is
// len(in) * InterpFactor; sample order is preserved. Empty input yields
// empty output. Each call filters independently, packets straddling a
// call boundary are recovered by the synchronizer's overlap buffer.
func (ip *Interpolator) Process(in []complex128) []complex128 {
	if ip.cfg.InterpFactor <= 1 || len(in) == 0 {
		return in
	}

	factor := ip.cfg.InterpFactor
	out := make([]complex128, len(in)*factor)
	for n := range in {
		for p := 0; p < factor; p++ {
			var acc complex128
			arm := ip.arms[p]
			for k := 0; k < len(arm) && k <= n; k++ {
				acc += complex(arm[k], 0) * in[n-k]
			}
			out[n*factor+p] = acc
		}
	}
	return out
}
