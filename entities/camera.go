package entities

// Camera is a snapshot of one traffic camera from the external directory.
type Camera struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Roadway   string  `json:"roadway"`
	Direction string  `json:"direction"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ImageURL  string  `json:"image_url"`
	VideoURL  string  `json:"video_url"`
	Disabled  bool    `json:"disabled"`
	Blocked   bool    `json:"blocked"`
}

// Sign is a variable message sign from the external directory.
type Sign struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Roadway   string   `json:"roadway"`
	Direction string   `json:"direction"`
	Messages  []string `json:"messages"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}
