package server

// RegisterRoutes attaches all HTTP and WebSocket routes to the Echo
// instance. The REST surfaces only produce input to or read output stored
// by the distribution core; the WebSocket endpoint is the local leg of the
// fan-out.
func (s *Server) RegisterRoutes() {
	api := s.E.Group("/api")
	api.POST("/rooms", s.roomHandler.Create)
	api.GET("/rooms", s.roomHandler.List)
	api.GET("/rooms/:id/messages", s.roomHandler.History)
	api.POST("/rooms/:id/messages", s.messageHandler.Send)

	s.E.GET("/ws/rooms/:id", s.wsHandler.Attach)
}
