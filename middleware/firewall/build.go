package firewall

import (
	"time"

	"github.com/sirupsen/logrus"

	"middleware-firewall/middleware/firewall/application"
	"middleware-firewall/middleware/firewall/config"
	"middleware-firewall/middleware/firewall/domain"
)

// NewServices monta os pipelines das estratégias habilitadas.
// Cada estratégia usa o próprio store; quando é o mesmo, os keyspaces
// continuam separados pelo KeyPrefix.
func NewServices(fw config.Firewall, ipStore, routeStore domain.CounterStore, log *logrus.Logger, storeTimeout time.Duration) (ip, route *application.Service) {
	build := func(sc config.StrategyConfig, store domain.CounterStore, component string) *application.Service {
		if !sc.Enabled {
			return nil
		}
		return &application.Service{
			Rules:        sc.Rules,
			Store:        store,
			Response:     sc.Response,
			KeyPrefix:    sc.KeyPrefix,
			FailClosed:   sc.FailClosed,
			StoreTimeout: storeTimeout,
			Log:          application.NewLogger(log, component, fw.LogEnable),
		}
	}
	return build(fw.IP, ipStore, "firewallIP"), build(fw.Route, routeStore, "firewallRequest")
}
