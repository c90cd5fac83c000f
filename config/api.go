package config

// APIConfig exposes the decision log over HTTP when Address is set.
type APIConfig struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}
