package summarizer

import (
	"github.com/aiacademy/tutor/pkg/audio"
)

type Option func(*Pipeline)

func WithAudio(fetcher audio.Fetcher) Option {
	return func(p *Pipeline) {
		p.audio = fetcher
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(p *Pipeline) {
		if prompt != "" {
			p.systemPrompt = prompt
		}
	}
}

func WithMaxTokens(val int) Option {
	return func(p *Pipeline) {
		p.maxTokens = &val
	}
}

func WithTemperature(val float32) Option {
	return func(p *Pipeline) {
		p.temperature = &val
	}
}
