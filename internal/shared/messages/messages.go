// Package messages holds the user-facing push notification texts.
package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render replaces {name} placeholders in title and body.
func (m MessageText) Render(vars map[string]string) MessageText {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return MessageText{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}

type Messages struct {
	NewTransactions MessageText `json:"new_transactions"`
	SyncFailed      MessageText `json:"sync_failed"`
}

// Default returns the built-in texts used when no messages file is configured.
func Default() *Messages {
	return &Messages{
		NewTransactions: MessageText{
			Title: "Novas transações",
			Body:  "{count} novas transações de {institution} foram importadas.",
		},
		SyncFailed: MessageText{
			Title: "Conexão com o banco",
			Body:  "Não conseguimos atualizar {institution}. Reconecte sua conta.",
		},
	}
}

// Load reads the notifications JSON file. An empty path returns Default.
// Texts missing from the file keep their default value.
func Load(path string) (*Messages, error) {
	msgs := Default()
	if path == "" {
		return msgs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}
	if err := json.Unmarshal(data, msgs); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return msgs, nil
}
