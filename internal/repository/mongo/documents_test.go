package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vedran77/vybe/internal/domain"
)

func TestConversationDocument_Uses_Canonical_Pair(t *testing.T) {
	req := require.New(t)

	doc := newConversationDocument(&domain.Conversation{
		ID:           "c1",
		Participants: [2]domain.UserID{"zoe", "adam"},
	})

	req.Equal("4:adam|zoe", doc.PairKey)
	req.Equal([]string{"adam", "zoe"}, doc.Participants)
	req.NotNil(doc.Messages)
}

func TestNotificationDocument_Stores_Data_As_Subdocument(t *testing.T) {
	req := require.New(t)
	from := domain.UserID("alice")

	doc, err := newNotificationDocument(&domain.Notification{
		ID:        "n1",
		To:        "bob",
		From:      &from,
		Type:      domain.NotificationLike,
		Data:      []byte(`{"postId":"p1","likerUsername":"alice_w"}`),
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	req.NoError(err)
	req.Equal(bson.E{Key: "postId", Value: "p1"}, doc.Data[0])

	n, err := doc.toDomain()
	req.NoError(err)
	req.JSONEq(`{"postId":"p1","likerUsername":"alice_w"}`, string(n.Data))
	req.Equal(domain.UserID("alice"), n.FromID())
}

func TestNotificationDocument_Rejects_Non_Object_Data(t *testing.T) {
	req := require.New(t)

	_, err := newNotificationDocument(&domain.Notification{ID: "n1", To: "bob", Data: []byte(`"text"`)})

	req.Error(err)
}
