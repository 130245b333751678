package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderEngagement(t *testing.T) {
	req := require.New(t)

	n, err := RenderEngagement(EngagementNotice{
		Kind:          "reviewed",
		AppName:       "gigboard",
		RecipientName: "Felix",
		RecipientTo:   "felix@example.com",
		ActorName:     "Carla <Co>",
		Project:       "Logo",
		Rating:        5,
	})
	req.NoError(err)
	req.Equal("felix@example.com", n.To)
	req.Equal("Carla <Co> reviewed your work on Logo", n.Subject)
	req.Contains(n.Text, "Hi Felix,")
	req.Contains(n.Text, "5-star review")
	req.Contains(n.HTML, "Carla &lt;Co&gt;")
	req.NotContains(n.HTML, "<Co>")
}

func TestRenderEngagement_Rejects(t *testing.T) {
	_, err := RenderEngagement(EngagementNotice{Kind: "fired", RecipientTo: "a@b.c"})
	require.Error(t, err)
	_, err = RenderEngagement(EngagementNotice{Kind: "hired"})
	require.Error(t, err)
}
