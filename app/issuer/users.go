package issuer

import (
	"errors"
	"net/http"
	"time"

	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/logger"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
	"github.com/gridlinecompany/LetsEcrypt/middleware"
	"github.com/gridlinecompany/LetsEcrypt/pkg/users"
)

type registerRequest struct {
	Name     string `json:"name" sanitize:"single_line,no_control,max:100" validate:"required"`
	Email    string `json:"email" sanitize:"trim_lower" validate:"required;max:254;email"`
	Password string `json:"password" validate:"required;max:72"`
}

type loginRequest struct {
	Email    string `json:"email" sanitize:"trim_lower" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created"`
}

type userResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	User    userView `json:"user"`
}

func viewOf(u users.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (a *App) register(ctx *Context) handler.Response {
	var req registerRequest
	if err := bind(ctx, &req, "Name, email and password are required"); err != nil {
		return response.Error(err)
	}

	u, err := a.users.Register(ctx, req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrUserExists):
		return response.Error(response.ErrConflict.WithMessage("User with this email already exists"))
	case errors.Is(err, users.ErrInvalidInput):
		return response.Error(response.ErrBadRequest.WithMessage("Name, email and password are required"))
	case err != nil:
		return response.Error(err)
	}

	if err := a.signIn(ctx, u.ID); err != nil {
		return response.Error(err)
	}
	a.log.InfoContext(ctx, "user registered", logger.UserID(u.ID))
	return response.JSONWithStatus(userResponse{Success: true, Message: "Registration successful", User: viewOf(u)}, http.StatusCreated)
}

func (a *App) login(ctx *Context) handler.Response {
	var req loginRequest
	if err := bind(ctx, &req, "Email and password are required"); err != nil {
		return response.Error(err)
	}

	u, err := a.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		return response.Error(response.ErrUnauthorized.WithMessage("Invalid email or password"))
	}
	if err != nil {
		return response.Error(err)
	}

	if err := a.signIn(ctx, u.ID); err != nil {
		return response.Error(err)
	}
	return response.JSON(userResponse{Success: true, Message: "Login successful", User: viewOf(u)})
}

// signIn binds the loaded session to userID under a fresh session ID.
func (a *App) signIn(ctx *Context, userID string) error {
	current, ok := ctx.Session()
	if !ok {
		return response.ErrInternalServerError
	}
	authed, err := a.sessions.Manager().Authenticate(ctx, current, userID)
	if err != nil {
		return err
	}
	if err := a.sessions.Save(ctx.ResponseWriter(), authed); err != nil {
		return err
	}
	middleware.SetSession(ctx, authed)
	return nil
}

func (a *App) logout(ctx *Context) handler.Response {
	if err := a.sessions.Destroy(ctx.ResponseWriter(), ctx.Request()); err != nil {
		a.log.WarnContext(ctx, "failed to delete session", logger.Error(err))
	}
	return response.JSON(map[string]any{"success": true, "message": "Logged out"})
}

func (a *App) me(ctx *Context) handler.Response {
	u, err := a.users.Get(ctx, ctx.UserID())
	if errors.Is(err, users.ErrNotFound) {
		return response.Error(response.ErrUnauthorized.WithMessage("Authentication required"))
	}
	if err != nil {
		return response.Error(err)
	}
	return response.NoStore(response.JSON(userResponse{Success: true, User: viewOf(u)}))
}
