package delivery

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// UpdateChatByID is the partial-update mutation pushed once per trace
// record and once more with the final bot text. The downstream side
// fans it out to subscribers.
const UpdateChatByID = `mutation UpdateChatById($input: UpdateChatInput!) {
  updateChatById(input: $input) {
    id
    userID
    human
    bot
    payload
    updatedAt
  }
}`

// ChatUpdateInput is the variables input for UpdateChatByID. Payload is
// a JSON-serialized envelope of {trace?, metrics, documents}.
type ChatUpdateInput struct {
	ID      string `json:"id"`
	UserID  string `json:"userID"`
	Human   string `json:"human"`
	Bot     string `json:"bot"`
	Payload string `json:"payload"`
}

func init() {
	// Catch document drift at startup rather than on first delivery.
	mustParseQuery("UpdateChatById", UpdateChatByID)
}

func mustParseQuery(name, doc string) *ast.QueryDocument {
	parsed, err := parser.ParseQuery(&ast.Source{Name: name, Input: doc})
	if err != nil {
		panic(fmt.Sprintf("invalid mutation document %s: %v", name, err))
	}
	return parsed
}
