package service

import (
	"context"
	"strings"

	"github.com/vedran77/vybe/internal/domain"
)

type likeData struct {
	PostID        string        `json:"postId"`
	LikerID       domain.UserID `json:"likerId"`
	LikerUsername string        `json:"likerUsername"`
}

type followData struct {
	FollowerID       domain.UserID `json:"followerId"`
	FollowerUsername string        `json:"followerUsername"`
}

type commentData struct {
	PostID            string        `json:"postId"`
	CommentID         string        `json:"commentId,omitempty"`
	CommenterID       domain.UserID `json:"commenterId"`
	CommenterUsername string        `json:"commenterUsername"`
	Text              string        `json:"text,omitempty"`
}

// RouteLike records a like notification for the post owner. Liking your own post is a no-op
// and returns a nil notification.
func (r *Router) RouteLike(ctx context.Context, actorID, postOwnerID domain.UserID, postID string) (*domain.Notification, error) {
	if err := validateActivity(actorID, postOwnerID, postID); err != nil {
		return nil, err
	}
	if actorID == postOwnerID {
		return nil, nil
	}
	n, err := r.newNotification(ctx, postOwnerID, actorID, domain.NotificationLike, likeData{
		PostID:        postID,
		LikerID:       actorID,
		LikerUsername: r.username(ctx, actorID),
	})
	if err != nil {
		return nil, persistenceError("creating like notification", err)
	}
	r.deliverNotification(ctx, n)
	return n, nil
}

// RouteUnlike stores nothing. The owner, if online, gets a postLikeRemoved signal so the UI can
// drop the like.
func (r *Router) RouteUnlike(ctx context.Context, actorID, postOwnerID domain.UserID, postID string) error {
	if err := validateActivity(actorID, postOwnerID, postID); err != nil {
		return err
	}
	if actorID == postOwnerID {
		return nil
	}
	r.deliver(postOwnerID, domain.EventPostLikeRemoved, PostLikeRemovedPayload{PostID: postID, UserID: actorID})
	return nil
}

// RouteFollow records a follow notification for targetID. Self-follows are rejected upstream.
func (r *Router) RouteFollow(ctx context.Context, actorID, targetID domain.UserID) (*domain.Notification, error) {
	if actorID.IsZero() || targetID.IsZero() {
		return nil, ErrMissingUser
	}
	n, err := r.newNotification(ctx, targetID, actorID, domain.NotificationFollow, followData{
		FollowerID:       actorID,
		FollowerUsername: r.username(ctx, actorID),
	})
	if err != nil {
		return nil, persistenceError("creating follow notification", err)
	}
	r.deliverNotification(ctx, n)
	return n, nil
}

// RouteUnfollow produces no record and no realtime signal.
func (r *Router) RouteUnfollow(ctx context.Context, actorID, targetID domain.UserID) error {
	if actorID.IsZero() || targetID.IsZero() {
		return ErrMissingUser
	}
	r.log.Debug("router: unfollow, nothing to route", "actor_id", actorID, "target_id", targetID)
	return nil
}

// RouteComment records a comment notification for the post owner, skipping self-comments.
func (r *Router) RouteComment(ctx context.Context, actorID, postOwnerID domain.UserID, postID, commentID, text string) (*domain.Notification, error) {
	if err := validateActivity(actorID, postOwnerID, postID); err != nil {
		return nil, err
	}
	if actorID == postOwnerID {
		return nil, nil
	}
	n, err := r.newNotification(ctx, postOwnerID, actorID, domain.NotificationComment, commentData{
		PostID:            postID,
		CommentID:         commentID,
		CommenterID:       actorID,
		CommenterUsername: r.username(ctx, actorID),
		Text:              text,
	})
	if err != nil {
		return nil, persistenceError("creating comment notification", err)
	}
	r.deliverNotification(ctx, n)
	return n, nil
}

// RouteCommentDeleted produces no record and no realtime signal.
func (r *Router) RouteCommentDeleted(ctx context.Context, actorID, postOwnerID domain.UserID, postID, commentID string) error {
	if err := validateActivity(actorID, postOwnerID, postID); err != nil {
		return err
	}
	r.log.Debug("router: comment deleted, nothing to route", "actor_id", actorID, "post_id", postID, "comment_id", commentID)
	return nil
}

func validateActivity(actorID, ownerID domain.UserID, postID string) error {
	if actorID.IsZero() || ownerID.IsZero() {
		return ErrMissingUser
	}
	if strings.TrimSpace(postID) == "" {
		return ErrPostRequired
	}
	return nil
}
