package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/tutormesh/core"
)

func TestSelector(t *testing.T) {
	s := NewSelector()

	assert.True(t, s.HasVideoIntent("Can you find me a tutorial VIDEO on subnetting?"))
	assert.True(t, s.HasVideoIntent("best YouTube channel for networking"))
	assert.False(t, s.HasVideoIntent("What is a firewall?"))

	video := core.NewState("Any tutorial on OSPF?")
	assert.Equal(t, NoVideosMessage, s.Select(video, "fused"))

	assert.NoError(t, video.SetToolOutput("links"))
	assert.Equal(t, "links", s.Select(video, "fused"))

	plain := core.NewState("What is OSPF?")
	assert.NoError(t, plain.SetToolOutput("links"))
	assert.Equal(t, "fused", s.Select(plain, "fused"))
}

func TestSelector_CustomKeywords(t *testing.T) {
	s := NewSelector(" Lecture ", "")

	assert.True(t, s.HasVideoIntent("recorded lecture about DNS"))
	assert.False(t, s.HasVideoIntent("video about DNS"))
}
