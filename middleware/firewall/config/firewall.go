package config

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"middleware-firewall/middleware/firewall/domain"
)

// list aceita apenas sequências YAML; qualquer outro valor vira lista vazia.
type list[T any] []T

func (l *list[T]) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if _, ok := raw.([]interface{}); !ok {
		*l = nil
		return nil
	}
	var out []T
	if err := unmarshal(&out); err != nil {
		return err
	}
	*l = out
	return nil
}

type ruleYAML struct {
	Interval int64        `yaml:"interval"`
	Count    int64        `yaml:"count"`
	Expire   int64        `yaml:"expire"`
	Method   string       `yaml:"method"`
	URLs     list[string] `yaml:"urls"`
}

type routeYAML struct {
	Method string `yaml:"method"`
	URL    string `yaml:"url"`
}

// fileConfig espelha as opções do arquivo YAML.
type fileConfig struct {
	LogEnable bool `yaml:"logEnable"`
	FailOpen  bool `yaml:"failOpen"`

	UseIP           bool            `yaml:"useIP"`
	IPRule          list[ruleYAML]  `yaml:"ipRule"`
	IPRedirectURL   string          `yaml:"ipRedirectUrl"`
	IPCode          int             `yaml:"ipCode"`
	IPMessage       string          `yaml:"ipMessage"`
	IPIgnore        list[string]    `yaml:"ipIgnore"`
	IPDisabled      list[string]    `yaml:"ipDisabled"`
	IPIgnoreRequest list[routeYAML] `yaml:"ipIgnoreRequest"`
	IPRedisPrefix   string          `yaml:"ipRedisPrefix"`

	UseRequest         bool           `yaml:"useRequest"`
	RequestRule        list[ruleYAML] `yaml:"requestRule"`
	RequestRedirectURL string         `yaml:"requestRedirectUrl"`
	RequestCode        int            `yaml:"requestCode"`
	RequestMessage     string         `yaml:"requestMessage"`
	RequestIgnoreIP    list[string]   `yaml:"requestIgnoreIP"`
	RequestDisabled    list[string]   `yaml:"requestDisabled"`
	RequestRedisPrefix string         `yaml:"requestRedisPrefix"`
}

// defaults: 60s/3 requisições/ban de 300s, para IP e para GET / e /404.
func defaults() fileConfig {
	return fileConfig{
		FailOpen: true,

		UseIP:     true,
		IPRule:    list[ruleYAML]{{Interval: 60, Count: 3, Expire: 300}},
		IPCode:    403,
		IPMessage: "IP DISABLED",
		IPIgnoreRequest: list[routeYAML]{
			{Method: "GET", URL: "/build/*"},
			{Method: "GET", URL: "/favicon.ico"},
		},
		IPRedisPrefix: "ip:count",

		UseRequest: true,
		RequestRule: list[ruleYAML]{
			{Method: "GET", Interval: 60, Count: 3, Expire: 300, URLs: list[string]{"/", "/404"}},
		},
		RequestCode:        403,
		RequestMessage:     "REQUEST DISABLED",
		RequestRedisPrefix: "request:count",
	}
}

// DefaultFirewall devolve a configuração padrão já normalizada.
func DefaultFirewall() (Firewall, error) {
	return defaults().normalize()
}

// ParseFirewall lê o YAML por cima dos valores padrão e normaliza.
func ParseFirewall(data []byte) (Firewall, error) {
	fc := defaults()
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Firewall{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return fc.normalize()
}

func (fc fileConfig) normalize() (Firewall, error) {
	fw := Firewall{LogEnable: fc.LogEnable}

	if err := checkStatus("ipCode", fc.IPCode); err != nil {
		return Firewall{}, err
	}
	if err := checkStatus("requestCode", fc.RequestCode); err != nil {
		return Firewall{}, err
	}

	ignoreRoutes := make([]domain.IgnoreRoute, 0, len(fc.IPIgnoreRequest)+1)
	for _, r := range fc.IPIgnoreRequest {
		ignoreRoutes = append(ignoreRoutes, domain.IgnoreRoute{Method: r.Method, Pattern: r.URL})
	}
	// a página de redirect não pode ser bloqueada, senão vira loop
	if fc.IPRedirectURL != "" {
		ignoreRoutes = append(ignoreRoutes, domain.IgnoreRoute{Method: "GET", Pattern: fc.IPRedirectURL})
	}

	ipRules, err := domain.NewRuleSet(domain.StrategyIP, domain.RuleSetConfig{
		Rules:        toRules(fc.IPRule),
		DenyList:     fc.IPDisabled,
		IgnoreList:   fc.IPIgnore,
		IgnoreRoutes: ignoreRoutes,
	})
	if err != nil {
		return Firewall{}, err
	}
	fw.IP = StrategyConfig{
		Enabled: fc.UseIP,
		Rules:   ipRules,
		Response: domain.DenyResponse{
			RedirectURL: fc.IPRedirectURL,
			StatusCode:  fc.IPCode,
			Body:        fc.IPMessage,
		},
		KeyPrefix:  fc.IPRedisPrefix,
		FailClosed: !fc.FailOpen,
	}

	routeRules, err := domain.NewRuleSet(domain.StrategyRoute, domain.RuleSetConfig{
		Rules:      toRules(fc.RequestRule),
		DenyList:   fc.RequestDisabled,
		IgnoreList: fc.RequestIgnoreIP,
	})
	if err != nil {
		return Firewall{}, err
	}
	fw.Route = StrategyConfig{
		Enabled: fc.UseRequest,
		Rules:   routeRules,
		Response: domain.DenyResponse{
			RedirectURL: fc.RequestRedirectURL,
			StatusCode:  fc.RequestCode,
			Body:        fc.RequestMessage,
		},
		KeyPrefix:  fc.RequestRedisPrefix,
		FailClosed: !fc.FailOpen,
	}

	return fw, nil
}

// checkStatus aceita 0 (usa o padrão 403) ou um código que WriteHeader aceite.
func checkStatus(name string, code int) error {
	if code == 0 || (code >= 100 && code <= 999) {
		return nil
	}
	return fmt.Errorf("%w: %s must be an HTTP status (100..999), got %d", domain.ErrConfiguration, name, code)
}

func toRules(in []ruleYAML) []domain.Rule {
	out := make([]domain.Rule, 0, len(in))
	for _, r := range in {
		out = append(out, domain.Rule{
			Interval: r.Interval,
			MaxCount: r.Count,
			Ban:      r.Expire,
			Method:   r.Method,
			Paths:    r.URLs,
		})
	}
	return out
}
