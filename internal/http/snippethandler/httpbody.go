package snippethandler

import "time"

type CreateSnippetBody struct {
	Filename  string `json:"filename"  binding:"max=255"                          example:"main.py"`
	Content   string `json:"content"   binding:"max=1048576"                      example:"print('hi')"`
	ExpiresIn string `json:"expiresIn" binding:"omitempty,oneof=1m 1h 24h 2d 3d" example:"1h"`
} // @name CreateSnippetRequest

type CreateSnippetResponse struct {
	ShareID   string    `json:"shareId"   example:"abc12345"`
	ExpiresAt time.Time `json:"expiresAt" example:"2025-07-27T16:05:05Z"`
} // @name CreateSnippetResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ShareIDParam struct {
	ShareID string `uri:"shareId" binding:"required,alphanum,max=64"`
} // @name ShareIDParam
