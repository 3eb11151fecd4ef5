package policy

import (
	"encoding/json"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/token"
)

// View is what a viewer may see of a token: either *FullView or *RedactedView.
// Callers switch on the concrete type so the redacted case cannot be ignored.
type View interface {
	TokenID() domain.TokenID
	view()
}

// FullView exposes the complete token record
type FullView struct {
	Token *token.Token
}

// RedactedView exposes only the token id and an existence marker
type RedactedView struct {
	ID     domain.TokenID
	Exists bool
}

func (v *FullView) TokenID() domain.TokenID {
	return v.Token.ID
}

func (v *FullView) view() {}

func (v *RedactedView) TokenID() domain.TokenID {
	return v.ID
}

func (v *RedactedView) view() {}

// MarshalJSON renders the full record under "token"
func (v *FullView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TokenID domain.TokenID `json:"token_id"`
		Exists  bool           `json:"exists"`
		Token   *token.Token   `json:"token"`
	}{
		TokenID: v.Token.ID,
		Exists:  true,
		Token:   v.Token,
	})
}

// MarshalJSON renders only the id and the existence marker
func (v *RedactedView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TokenID domain.TokenID `json:"token_id"`
		Exists  bool           `json:"exists"`
	}{
		TokenID: v.ID,
		Exists:  v.Exists,
	})
}

// CanView reports whether viewer may see the full record of t.
// Public tokens are visible to everyone. Private tokens are visible to their
// holder and to addresses on the view list. An empty viewer is anonymous.
func CanView(t *token.Token, viewer domain.Address) bool {
	if !t.Private {
		return true
	}
	if viewer == "" {
		return false
	}
	return viewer == t.Holder() || t.IsViewer(viewer)
}

// RedactIfPrivate returns the full record when viewer may see it and a
// redacted record otherwise. Only the query side calls this; mutation paths
// always work on full records.
func RedactIfPrivate(t *token.Token, viewer domain.Address) View {
	if CanView(t, viewer) {
		return &FullView{Token: t.Clone()}
	}
	return &RedactedView{ID: t.ID, Exists: true}
}
