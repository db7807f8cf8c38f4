package main

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Upstream de validação manual do gateway: expõe as rotas cobertas pelas
// regras padrão (/ e /404) e um estático em /build/ (rota ignorada por IP).
func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Tela do Sistema</h1><p>%s %s recebida com sucesso!</p>", r.Method, r.URL.Path)
		log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path, "xff": r.Header.Get("X-Forwarded-For")}).Info("request received")
	})
	mux.HandleFunc("/build/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, "console.log('static');\n")
	})

	log.Info("upstream listening on http://localhost:8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		log.Fatalf("upstream error: %v", err)
	}
}
