package domain

// Outbound realtime event names. Clients subscribe to these by name.
const (
	EventNewMessage      = "newMessage"
	EventMessageEdited   = "messageEdited"
	EventMessageDeleted  = "messageDeleted"
	EventNewNotification = "newNotification"
	EventPostLikeRemoved = "postLikeRemoved"
	EventOnlineUsers     = "getOnlineUsers"
)
