package common

const (
	KEY_SIMULATION_STATS = "simulation_stats:%d"
)
