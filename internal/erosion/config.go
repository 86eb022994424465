package erosion

// Config selects the erosion variant and its fixed numerical settings.
type Config struct {
	Diffusion     bool    // Run the hillslope diffusion pass after erosion
	DiffusionRate float64 // Kt, fraction of the 4-neighbour Laplacian applied per step
	MaxChange     float64 // Per-step clamp on |Δh| from erosion or deposition
	TimeStep      float64 // dt
}

// DefaultConfig is stream power with hillslope diffusion.
func DefaultConfig() Config {
	return Config{
		Diffusion:     true,
		DiffusionRate: 0.05,
		MaxChange:     5.0,
		TimeStep:      1.0,
	}
}

// StreamPowerOnly disables hillslope diffusion.
func StreamPowerOnly() Config {
	cfg := DefaultConfig()
	cfg.Diffusion = false
	return cfg
}
