package httpapi

import (
	"net/http"
)

func NewMux(broker BrokerStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, broker)
	return mux
}
