package model

// Audio is the handle a synthesizer returns for one segment.
type Audio struct {
	Data      []byte
	Format    string // wav, mp3, pcm
	SourceURL string // remote location when the provider hosts the file
}
