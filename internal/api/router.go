package api

import (
	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/workspace"
	"github.com/huddle-chat/huddle/internal/ws"
	"go.uber.org/zap"
)

// NewRouter builds the full route table. Auth routes and the health
// check are public; everything else sits behind the session middleware.
func NewRouter(engine *workspace.Workspace, hub *ws.Hub, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	auth := NewAuthHandler(engine, logger)
	channel := NewChannelHandler(engine, logger)
	message := NewMessageHandler(engine, logger)
	user := NewUserHandler(engine, logger)
	admin := NewAdminHandler(engine, logger)
	standup := NewStandupHandler(engine, logger)
	misc := NewMiscHandler(engine, logger)
	wsh := NewWSHandler(hub, logger)

	r.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/register", auth.Register)
	r.POST("/v1/auth/login", auth.Login)
	r.POST("/v1/auth/logout", auth.Logout)
	r.POST("/v1/auth/passwordreset/request", auth.RequestReset)
	r.POST("/v1/auth/passwordreset/reset", auth.Reset)

	v1 := r.Group("/v1")
	v1.Use(middleware.Auth(engine))

	v1.POST("/channels/create", channel.Create)
	v1.GET("/channels/list", channel.List)
	v1.GET("/channels/listall", channel.ListAll)
	v1.GET("/channel/details", channel.Details)
	v1.POST("/channel/join", channel.Join)
	v1.POST("/channel/leave", channel.Leave)
	v1.POST("/channel/invite", channel.Invite)
	v1.POST("/channel/addowner", channel.AddOwner)
	v1.POST("/channel/removeowner", channel.RemoveOwner)
	v1.GET("/channel/messages", message.Retrieve)

	v1.POST("/message/send", message.Send)
	v1.POST("/message/sendlater", message.SendLater)
	v1.PUT("/message/edit", message.Edit)
	v1.DELETE("/message/remove", message.Remove)
	v1.POST("/message/react", message.React)
	v1.POST("/message/unreact", message.Unreact)
	v1.POST("/message/pin", message.Pin)
	v1.POST("/message/unpin", message.Unpin)
	v1.GET("/search", message.Search)

	v1.GET("/user/profile", user.Profile)
	v1.PUT("/user/profile/setname", user.SetName)
	v1.PUT("/user/profile/setemail", user.SetEmail)
	v1.PUT("/user/profile/sethandle", user.SetHandle)
	v1.GET("/users/all", user.All)

	v1.POST("/standup/start", standup.Start)
	v1.GET("/standup/active", standup.Active)
	v1.POST("/standup/send", standup.Send)

	v1.POST("/admin/userpermission/change", admin.ChangePermission)
	v1.DELETE("/admin/user/remove", admin.RemoveUser)

	v1.GET("/echo", misc.Echo)
	v1.POST("/workspace/reset", misc.Reset)

	v1.GET("/ws", wsh.Connect)

	return r
}
