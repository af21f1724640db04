package firestore

import (
	"context"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// Store serves the chat list engine from Firestore. In this mode the
// process only observes: clients write messages, profiles and group
// state directly through the Firebase SDKs.
//
// Document layout:
//
//	conversations/{key}/messages/{messageID}
//	users/{userID}            displayName, avatarUrl, online, groups []
//	groups/{groupID}          name, creatorId, unread map[userID]count
type Store struct {
	client *gfs.Client
}

func NewStore(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gfs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) usersCol() *gfs.CollectionRef {
	return s.client.Collection("users")
}

func (s *Store) groupsCol() *gfs.CollectionRef {
	return s.client.Collection("groups")
}
