package in

import metricsin "adsdash/internal/modules/metrics/port/in"

type TUIHandler struct {
	usecase metricsin.Usecase
}

func NewTUIHandler(usecase metricsin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

// NewDashboard starts a fresh dashboard; each sign-in gets its own.
func (h TUIHandler) NewDashboard() metricsin.Dashboard {
	return h.usecase.NewDashboard()
}
