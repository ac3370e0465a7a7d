package world

//go:generate mockgen -destination=./mock/mock_sound.go . SoundPlayer

// SoundPlayer receives sound cues. The engine never plays audio itself.
type SoundPlayer interface {
	Play(id string)
	Stop(id string)
}

// printSound reports cues on the world output.
type printSound struct {
	w *World
}

func (p printSound) Play(id string) { p.w.Print("[sound: " + id + "]") }
func (p printSound) Stop(id string) { p.w.Print("[sound stopped: " + id + "]") }
