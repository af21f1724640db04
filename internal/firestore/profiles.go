package firestore

import (
	"context"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yeray-yas/ChatApp-sub003/internal/models"
	"github.com/yeray-yas/ChatApp-sub003/internal/repository"
)

// GetProfile reads the users/{id} document. A missing document maps to
// ErrProfileNotFound so the resolver drops the item instead of failing
// the pipeline.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	doc, err := s.usersCol().Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}
	return decodeProfileDoc(doc), nil
}

func decodeProfileDoc(doc *gfs.DocumentSnapshot) *models.Profile {
	data := doc.Data()

	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	online, _ := data["online"].(bool)

	return &models.Profile{
		UserID:      doc.Ref.ID,
		DisplayName: getStr("displayName"),
		AvatarURL:   getStr("avatarUrl"),
		Online:      online,
	}
}
