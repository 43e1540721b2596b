package folio

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Controller registers its routes on the group it is mounted under.
type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group *gin.RouterGroup
}

var (
	contextType    = reflect.TypeOf(&Context{})
	ginContextType = reflect.TypeOf(&gin.Context{})
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
)

func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	group := s.engine.Group(s.basePath + path)
	if len(middleware) > 0 {
		group.Use(middleware...)
	}
	return &ControllerGroup{group: group}
}

func (s *Server) RegisterController(path string, controller Controller, middleware ...gin.HandlerFunc) {
	controller.Register(s.Group(path, middleware...))
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{group: g.group.Group(path, middleware...)}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) GET(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, path, handler, middleware)
}

func (g *ControllerGroup) POST(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, path, handler, middleware)
}

func (g *ControllerGroup) PUT(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, path, handler, middleware)
}

func (g *ControllerGroup) DELETE(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, path, handler, middleware)
}

func (g *ControllerGroup) handle(method, path string, handler interface{}, middleware []gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middleware...)
	handlers = append(handlers, wrapHandler(handler))
	g.group.Handle(method, path, handlers...)
}

// wrapHandler adapts a typed handler to gin. Accepted shapes:
//
//	func() (T, error)
//	func(*Context) (T, error)
//	func(Req) (T, error)
//	func(*Context, Req) (T, error)
//
// Req is bound from the JSON body. A string result is written as plain text,
// anything else as JSON with the status the handler set (200 by default).
// Plain gin handlers are passed through.
func wrapHandler(handler interface{}) gin.HandlerFunc {
	switch h := handler.(type) {
	case gin.HandlerFunc:
		return h
	case func(*gin.Context):
		return h
	}

	v := reflect.ValueOf(handler)
	t := v.Type()
	if t.Kind() != reflect.Func || t.NumOut() != 2 || !t.Out(1).Implements(errorType) {
		panic(fmt.Sprintf("unsupported handler signature %s", t))
	}
	if t.NumIn() > 2 || (t.NumIn() == 2 && t.In(0) != contextType) {
		panic(fmt.Sprintf("unsupported handler signature %s", t))
	}
	if t.NumIn() == 1 && t.In(0) == ginContextType {
		panic(fmt.Sprintf("unsupported handler signature %s", t))
	}

	return func(c *gin.Context) {
		ctx := NewContext(c)
		args := make([]reflect.Value, 0, t.NumIn())
		for i := 0; i < t.NumIn(); i++ {
			in := t.In(i)
			if in == contextType {
				args = append(args, reflect.ValueOf(ctx))
				continue
			}

			req := reflect.New(in)
			if err := c.ShouldBindJSON(req.Interface()); err != nil {
				SendError(c, ErrBadRequest.New(err.Error()))
				return
			}
			args = append(args, req.Elem())
		}

		out := v.Call(args)
		if errVal := out[1]; !errVal.IsNil() {
			if !c.Writer.Written() {
				SendError(c, errVal.Interface().(error))
			}
			return
		}
		if c.Writer.Written() || c.IsAborted() {
			return
		}

		result := out[0].Interface()
		if s, ok := result.(string); ok {
			c.String(c.Writer.Status(), s)
			return
		}
		c.JSON(c.Writer.Status(), result)
	}
}
