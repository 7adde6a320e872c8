package health

import (
	"github.com/gridlinecompany/LetsEcrypt/core/handler"
	"github.com/gridlinecompany/LetsEcrypt/core/response"
)

// Liveness reports that the process is serving requests. It checks nothing.
func Liveness[C handler.Context](C) handler.Response {
	return response.NoStore(response.String("ALIVE"))
}
