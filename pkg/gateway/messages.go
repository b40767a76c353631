package gateway

import (
	"encoding/json"

	"github.com/notefold/notefold.go/pkg/models"
)

// Kind is the message discriminator carried in the envelope's "id" field.
type Kind string

// Outbound kinds (client to server).
const (
	KindHandshake          Kind = "handshake"
	KindRequestJoinChannel Kind = "request_join_channel"
	KindLeaveChannel       Kind = "leave_channel"
)

// Inbound kinds (server to client).
const (
	KindLogin             Kind = "login"
	KindJoinedChannel     Kind = "joined_channel"
	KindLeftChannel       Kind = "left_channel"
	KindUserJoinedChannel Kind = "user_joined_channel"
	KindUserLeftChannel   Kind = "user_left_channel"
	KindChannelNotFound   Kind = "channel_not_found"
)

// Block notification kinds flow in both directions: the originating client
// announces its edit, the server rebroadcasts it to the page channel.
const (
	KindBlockAdded    Kind = "block_added"
	KindBlockModified Kind = "block_modified"
	KindBlockDeleted  Kind = "block_deleted"
	KindBlockMoved    Kind = "block_moved"
)

// Envelope is the wire frame: a kind discriminator and a kind-specific
// payload.
type Envelope struct {
	ID   Kind            `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Outbound is implemented by every message the client may send. The set of
// implementations is closed; adding a message kind is a schema change.
type Outbound interface {
	Kind() Kind
}

// Handshake establishes protocol compatibility. It is the first frame sent
// after every successful open, before any business message.
type Handshake struct {
	Version int `json:"version"`
}

func (Handshake) Kind() Kind { return KindHandshake }

// RequestJoinChannel subscribes the client to a page-scoped broadcast
// channel. Joining a new page implicitly leaves the previous one.
type RequestJoinChannel struct {
	PageID int `json:"page_id"`
}

func (RequestJoinChannel) Kind() Kind { return KindRequestJoinChannel }

// LeaveChannel unsubscribes from the current page channel.
type LeaveChannel struct{}

func (LeaveChannel) Kind() Kind { return KindLeaveChannel }

// BlockAdded announces a block created on this page.
type BlockAdded struct {
	BlockID string `json:"block_id"`
}

func (BlockAdded) Kind() Kind { return KindBlockAdded }

// BlockModified announces a block whose type or data changed.
type BlockModified struct {
	BlockID string `json:"block_id"`
}

func (BlockModified) Kind() Kind { return KindBlockModified }

// BlockDeleted announces a block removed from the page.
type BlockDeleted struct {
	BlockID string `json:"block_id"`
}

func (BlockDeleted) Kind() Kind { return KindBlockDeleted }

// BlockMoved announces a reordered block. Dest is the server-confirmed
// destination index and is the value receivers must trust.
type BlockMoved struct {
	BlockID string `json:"block_id"`
	Dest    int    `json:"dest"`
}

func (BlockMoved) Kind() Kind { return KindBlockMoved }

// Login reports the outcome of the gateway authenticating this connection.
type Login struct {
	Success  bool   `json:"success"`
	Version  int    `json:"version"`
	Username string `json:"username"`
}

// JoinedChannel confirms channel membership with a snapshot of the page.
type JoinedChannel struct {
	CID  int         `json:"cid"`
	Page models.Page `json:"page"`
}

// LeftChannel confirms the client left its channel.
type LeftChannel struct{}

// UserJoinedChannel reports another participant joining the channel.
type UserJoinedChannel struct {
	CID      int    `json:"cid"`
	UID      int    `json:"uid"`
	Username string `json:"username"`
}

// UserLeftChannel reports a participant leaving the channel.
type UserLeftChannel struct {
	CID int `json:"cid"`
}

// ChannelNotFound reports a join request for a page without a channel.
type ChannelNotFound struct {
	PageID int `json:"page_id"`
}
