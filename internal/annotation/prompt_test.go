package annotation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log-triage-backend/internal/dto"
	"log-triage-backend/internal/fallback"
	"log-triage-backend/internal/model"
)

func decodePayload(t *testing.T, msg dto.ChatMessage) promptPayload {
	t.Helper()
	body := msg.Content[strings.Index(msg.Content, "{"):]
	var p promptPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestBuildMessages(t *testing.T) {
	groups := []model.Group{
		{Signature: "a", Count: 3, Examples: []string{"[ERROR] boom IllegalStateException"}},
		{Signature: "b", Count: 2},
		{Signature: "c", Count: 1},
	}

	msgs, err := BuildMessages(groups, 6, 2, fallback.NewExceptionExtractor())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, dto.RoleSystem, msgs[0].Role)
	assert.Equal(t, dto.RoleUser, msgs[1].Role)

	p := decodePayload(t, msgs[1])
	assert.Equal(t, 6, p.TotalEvents)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, []string{"IllegalStateException"}, p.Groups[0].Exceptions)
	assert.Nil(t, groups[0].Exceptions, "caller groups must not be mutated")
}

func TestBuildMessages_NegativeTopSendsAll(t *testing.T) {
	groups := []model.Group{{Signature: "a", Count: 1}, {Signature: "b", Count: 1}}

	msgs, err := BuildMessages(groups, 2, -1, nil)
	require.NoError(t, err)

	assert.Len(t, decodePayload(t, msgs[1]).Groups, 2)
}
