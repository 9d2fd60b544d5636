package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/email"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/news"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/report"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/scheduler"
	"github.com/PauloMNogueira/adam-sandler-news-agent/internal/telegram"
)

const (
	rule          = "--------------------------------------------------"
	searchListMax = 10
	clockLayout   = "02/01/2006 às 15:04"
)

var (
	ErrNoNews             = errors.New("nenhuma notícia relevante encontrada")
	ErrEmailNotConfigured = errors.New("SMTP não configurado: defina SMTP_USERNAME e SMTP_PASSWORD")
)

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...interface{}) {
	fmt.Fprintln(a.out, args...)
}

// Banner prints the header shown before every command.
func (a *App) Banner() {
	line := strings.Repeat("=", 60)
	a.println(line)
	a.println("🎬 ADAM SANDLER NEWS AGENT 🎬")
	a.printf("Agente de notícias sobre %s\n", a.cfg.Subject)
	a.printf("Executado em: %s\n", a.now().Format(clockLayout))
	a.println(line)
}

// DailyReport fetches, analyses and emails the daily report to recipient,
// or to the configured default recipient when it is empty.
func (a *App) DailyReport(ctx context.Context, recipient string) (err error) {
	start := a.now()
	defer func() { a.finish(start, err) }()

	if recipient == "" {
		recipient = a.cfg.DefaultRecipient
	}
	a.println("=== ADAM SANDLER NEWS AGENT ===")
	a.println("Iniciando processo de agregação de notícias...")
	a.printf("Destinatário: %s\n", recipient)
	a.printf("Data/Hora: %s\n", start.Format(clockLayout))
	a.println(rule)

	if !email.ValidateEmail(recipient) {
		a.printf("❌ E-mail inválido: %s\n", recipient)
		return fmt.Errorf("invalid recipient %q", recipient)
	}
	if a.mailer == nil {
		a.println("❌ " + ErrEmailNotConfigured.Error())
		return ErrEmailNotConfigured
	}

	r, err := a.reports.Daily(ctx)
	if err != nil {
		return err
	}
	a.analyze(ctx, r)

	html, err := r.HTML()
	if err != nil {
		return err
	}
	subject := email.DefaultSubject(a.cfg.Subject, r.GeneratedAt)
	if err := a.mailer.SendHTMLReport(ctx, recipient, subject, r.Summary, html); err != nil {
		a.println("❌ Falha no processo de envio do relatório")
		return err
	}
	a.notify(ctx, r)

	a.println("✅ Processo concluído com sucesso!")
	a.printf("📧 Relatório enviado para %s (%d notícias)\n", recipient, r.Count())
	a.println(rule)
	return nil
}

// Search fetches and prints the relevant news without delivering anything.
func (a *App) Search(ctx context.Context) (err error) {
	start := a.now()
	defer func() { a.finish(start, err) }()

	a.printf("=== BUSCA DE NOTÍCIAS SOBRE %s ===\n", strings.ToUpper(a.cfg.Subject))
	a.printf("Iniciando busca em %s\n", start.Format(clockLayout))
	a.println(rule)

	fetched := a.agg.FetchAll(ctx, a.cfg.SearchQuery)
	relevant := news.FilterRelevant(fetched, a.cfg.Keywords)
	a.printf("📰 Total de notícias encontradas: %d\n", len(fetched))
	a.printf("✅ Notícias relevantes: %d\n", len(relevant))

	breakdown := (&report.Report{Items: relevant}).SourceBreakdown()
	if len(breakdown) > 0 {
		a.println("\n📊 Resumo por fonte:")
		for _, sc := range breakdown {
			a.printf("  • %s: %d notícias\n", sc.Source, sc.Count)
		}
	}
	a.println(rule)

	if len(relevant) == 0 {
		return ErrNoNews
	}

	a.printf("\n📰 Notícias encontradas (%d):\n", len(relevant))
	a.println(strings.Repeat("=", 80))
	for i, n := range relevant {
		if i >= searchListMax {
			break
		}
		a.printf("\n%d. %s\n", i+1, n.Title)
		a.printf("   📅 %s\n", n.Published.Format("02/01/2006"))
		a.printf("   🌐 %s\n", n.Source)
		a.printf("   🔗 %s\n", n.URL)
		a.println("\n   📝 CONTEÚDO COMPLETO:")
		a.println("   " + rule)
		for _, line := range strings.Split(n.Content, "\n") {
			if strings.TrimSpace(line) != "" {
				a.printf("   %s\n", line)
			}
		}
		a.println("   " + rule)
	}
	if len(relevant) > searchListMax {
		a.printf("\n... e mais %d notícias.\n", len(relevant)-searchListMax)
	}
	return nil
}

// TestWorkflow checks the SMTP connection and sends a one-item test report.
func (a *App) TestWorkflow(ctx context.Context, recipient string) error {
	a.println("=== TESTE DO ADAM SANDLER NEWS AGENT ===")
	a.printf("Testando envio para: %s\n", recipient)
	a.printf("Data/Hora: %s\n", a.now().Format(clockLayout))
	a.println(rule)

	if !email.ValidateEmail(recipient) {
		a.printf("❌ E-mail inválido: %s\n", recipient)
		return fmt.Errorf("invalid recipient %q", recipient)
	}
	if a.mailer == nil {
		a.println("❌ " + ErrEmailNotConfigured.Error())
		return ErrEmailNotConfigured
	}

	a.println("🔧 Testando conexão SMTP...")
	if err := a.mailer.TestConnection(ctx); err != nil {
		a.println("❌ Falha na conexão SMTP")
		return err
	}
	a.println("✅ Conexão SMTP OK")

	a.println("📧 Enviando e-mail de teste...")
	r, err := a.reports.TestReport()
	if err != nil {
		return err
	}
	html, err := r.HTML()
	if err != nil {
		return err
	}
	if err := a.mailer.SendHTMLReport(ctx, recipient, r.Title, r.Summary, html); err != nil {
		a.println("❌ Falha no envio do e-mail de teste")
		return err
	}

	a.println("✅ Teste concluído com sucesso!")
	a.printf("📧 E-mail de teste enviado para %s\n", recipient)
	a.println(rule)
	return nil
}

// GenerateFile builds a report, writes it to path and publishes it to the
// docs site. Publishing problems are reported but do not fail the command.
func (a *App) GenerateFile(ctx context.Context, path string) (err error) {
	start := a.now()
	defer func() { a.finish(start, err) }()

	a.println("=== GERAÇÃO DE RELATÓRIO ===")
	a.printf("Iniciando em %s\n", start.Format(clockLayout))
	a.println(rule)

	r, err := a.reports.Generate(ctx, "")
	if err != nil {
		return err
	}
	a.analyze(ctx, r)

	a.println("📊 Relatório gerado:")
	a.printf("  • Título: %s\n", r.Title)
	a.printf("  • Notícias encontradas: %d\n", r.Count())
	a.printf("  • Fontes consultadas: %d\n", len(r.Metadata.SourcesSummary))

	written, err := report.WriteFile(r, path, report.FormatHTML)
	if err != nil {
		a.println("❌ Falha ao salvar relatório")
		return err
	}
	a.printf("💾 Relatório salvo em: %s\n", written)

	a.publish(ctx, r)
	a.notify(ctx, r)
	a.println(rule)
	return nil
}

func (a *App) publish(ctx context.Context, r *report.Report) {
	html, err := r.HTML()
	if err != nil {
		a.log.Warn("render for publishing failed", "error", err)
		return
	}
	page, err := a.publisher.SaveReport(html, r.Title, r.Count())
	if err != nil {
		a.printf("❌ Erro ao publicar relatório: %v\n", err)
		return
	}
	a.printf("📄 Relatório publicado em: %s\n", page)

	if !a.publisher.Configured() {
		return
	}
	if err := a.publisher.CommitAndPush(ctx, ""); err != nil {
		a.printf("❌ Erro ao enviar para GitHub: %v\n", err)
		return
	}
	if url := a.publisher.PagesURL(); url != "" {
		a.printf("🌐 Site disponível em: https://%s\n", url)
	}
}

// Status prints configuration, collaborator health and recent statistics.
func (a *App) Status(ctx context.Context) error {
	a.println("=== STATUS DO SISTEMA ===")
	a.printf("⏰ Timestamp: %s\n", a.now().Format(time.RFC3339))
	a.println("🟢 Status: operational")
	a.printf("📧 E-mail: %s\n", a.emailStatus(ctx))
	a.printf("🤖 Análise: %s\n", enabled(a.analyzer != nil))
	a.printf("📨 Telegram: %s\n", enabled(a.notifier != nil))
	if a.publisher.Configured() {
		a.printf("🌐 GitHub Pages: https://%s\n", a.publisher.PagesURL())
	} else {
		a.println("🌐 GitHub Pages: não configurado")
	}
	if reports, err := a.publisher.Reports(); err == nil {
		a.printf("📄 Relatórios publicados: %d\n", len(reports))
	}

	sources := a.agg.Sources()
	a.printf("🌐 Fontes disponíveis (%d):\n", len(sources))
	for _, src := range sources {
		state := ""
		if !src.Active {
			state = " (inativa)"
		}
		a.printf("  • %s [%s]%s\n", src.Name, src.Mechanism, state)
	}

	stats := a.reports.Statistics(ctx)
	a.println("\n📊 Estatísticas:")
	a.printf("  • Notícias disponíveis: %d\n", stats.TotalRecentNews)
	a.printf("  • Fontes ativas: %d\n", len(stats.SourcesBreakdown))
	return nil
}

func (a *App) emailStatus(ctx context.Context) string {
	if a.mailer == nil {
		return "não configurado"
	}
	if err := a.mailer.TestConnection(ctx); err != nil {
		a.log.Warn("smtp check failed", "error", err)
		return "error"
	}
	return "ok"
}

func enabled(ok bool) string {
	if ok {
		return "ativado"
	}
	return "desativado"
}

// ScheduledRun is the job run by Schedule: email when a default recipient
// and SMTP are configured, otherwise a published report file. The shared
// HTTP client is released when the run ends.
func (a *App) ScheduledRun(ctx context.Context) error {
	// the process outlives the run; do not keep its connections open
	defer a.agg.Close()

	if a.mailer != nil && email.ValidateEmail(a.cfg.DefaultRecipient) {
		return a.DailyReport(ctx, a.cfg.DefaultRecipient)
	}
	name := "relatorio_" + a.now().Format("20060102") + ".html"
	return a.GenerateFile(ctx, filepath.Join(a.cfg.ReportOutputDir, name))
}

// Schedule runs ScheduledRun on the configured cron spec until ctx is done.
func (a *App) Schedule(ctx context.Context) error {
	s, err := scheduler.New(a.cfg.CronSpec, a.ScheduledRun, a.log)
	if err != nil {
		return fmt.Errorf("invalid CRON_SPEC %q: %w", a.cfg.CronSpec, err)
	}
	s.Start()
	a.printf("⏰ Agendado (%s). Próxima execução: %s\n", a.cfg.CronSpec, s.Next())

	<-ctx.Done()
	s.Stop()
	return nil
}

// HelpSetup prints the configuration guide.
func (a *App) HelpSetup() {
	a.println("\n🚀 COMO USAR:")
	a.println("\n1. Configurar variáveis de ambiente:")
	a.println("   SMTP_USERNAME, SMTP_PASSWORD, DEFAULT_EMAIL_RECIPIENT")
	a.println("   GEMINI_API_KEY (opcional, análise inteligente)")
	a.println("   TELEGRAM_TOKEN, TELEGRAM_CHAT_ID (opcional)")
	a.println("   GITHUB_TOKEN, GITHUB_REPOSITORY (opcional, GitHub Pages)")
	a.printf("   Fontes: %s\n", a.cfg.SourcesConfigPath)
	a.println("\n2. Executar comandos:")
	a.println("   sandlernews -email seu@email.com")
	a.println("   sandlernews -search")
	a.println("   sandlernews -test seu@email.com")
	a.println("   sandlernews -generate-file relatorio.html")
	a.println("   sandlernews -status")
	a.println("   sandlernews -schedule")
	a.println("\n📧 CONFIGURAÇÃO DE E-MAIL:")
	a.println("   • Gmail: Use senha de app (não a senha normal)")
	a.println("   • Outlook: Configure SMTP adequadamente")
	a.println("   • Outros: Verifique configurações SMTP")
}

// analyze runs the analyzer over the report items when one is configured.
func (a *App) analyze(ctx context.Context, r *report.Report) {
	if a.analyzer == nil || r.Count() == 0 {
		return
	}
	a.analyzer.ResetBudget()
	done := a.analyzer.AnalyzeAll(ctx, r.Items)
	a.log.Info("analysis finished", "analyzed", done, "items", r.Count())
}

func (a *App) notify(ctx context.Context, r *report.Report) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.SendMessage(ctx, telegram.Truncate(r.Summary, telegram.MaxMessageLength)); err != nil {
		a.log.Warn("telegram notification failed", "error", err)
	}
}

func (a *App) finish(start time.Time, err error) {
	a.metrics.RecordProcessingTime(a.now().Sub(start))
	if err != nil {
		a.metrics.SetError(err.Error())
		return
	}
	a.metrics.SetLastRun()
}
