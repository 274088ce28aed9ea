package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/55onurisik/lmsmobile/internal/api"
	"github.com/55onurisik/lmsmobile/internal/chat"
	"github.com/55onurisik/lmsmobile/internal/exam"
	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
	"github.com/55onurisik/lmsmobile/internal/model"
	"github.com/55onurisik/lmsmobile/internal/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lmsmobile",
		Short:         "Student client for the exam and chat platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		registerCmd(),
		dashboardCmd(),
		examsCmd(),
		statsCmd(),
		profileCmd(),
		takeCmd(),
		reviewCmd(),
		chatCmd(),
	)

	return root
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(f *pflag.FlagSet) {
	f.String("base-url", "http://localhost:8000/api/studentAPI", "API base URL")
	f.Duration("timeout", 10*time.Second, "HTTP request timeout")
	f.StringP("lang", "l", appI18n.DefaultLang, "UI language (tr, en)")
	f.String("session-db", "lmsmobile.db", "Session database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE:  runLogin,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.StringP("email", "e", "", "Account email (prompted when empty)")
	f.StringP("password", "p", "", "Account password (prompted when empty)")
	return cmd
}

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the token and clear the local session",
		RunE:  runLogout,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new student account",
		RunE:  runRegister,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.String("name", "", "Full name")
	f.StringP("email", "e", "", "Account email")
	f.String("phone", "", "Phone number")
	f.StringP("password", "p", "", "Password")
	f.String("password-confirm", "", "Password confirmation")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the student profile and assigned exams",
		RunE:  runDashboard,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int("probe-limit", exam.DefaultProbeLimit, "Max concurrent completion probes")
	return cmd
}

func examsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exams",
		Short: "List assigned exams",
		RunE:  runExams,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Int("probe-limit", exam.DefaultProbeLimit, "Max concurrent completion probes")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-topic statistics for solved exams",
		RunE:  runStats,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the student profile",
		RunE:  runProfile,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.String("name", "", "New full name")
	f.StringP("email", "e", "", "New email address")
	return cmd
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take <exam-id>",
		Short: "Answer an exam's questions and submit",
		Args:  cobra.ExactArgs(1),
		RunE:  runTake,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Bool("allow-blank", false, "Submit with unanswered questions sent as blank")
	return cmd
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <exam-id>",
		Short: "Review graded answers and open teacher feedback",
		Args:  cobra.ExactArgs(1),
		RunE:  runReview,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.BoolP("broadcast", "b", false, "Request the broadcast variant of the review")
	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the teacher (polls for new messages)",
		RunE:  runChat,
	}
	f := cmd.Flags()
	commonFlags(f)
	f.Duration("chat-poll-interval", chat.DefaultInterval, "Interval between chat polls")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LMSMOBILE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lmsmobile")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lmsmobile")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app bundles the pieces every command needs: config, the session store and
// the API client, plus a context carrying the localizer.
type app struct {
	v      *viper.Viper
	store  *session.Store
	client *api.Client
	ctx    context.Context
}

func newApp(cmd *cobra.Command) (*app, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	st, err := session.New(v.GetString("session-db"))
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	client, err := api.New(api.Config{
		BaseURL: v.GetString("base-url"),
		Timeout: v.GetDuration("timeout"),
		Tokens:  st,
		OnUnauthorized: func() {
			if err := st.Clear(); err != nil {
				slog.Warn("clear session", "error", err)
			}
		},
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create API client: %w", err)
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	return &app{v: v, store: st, client: client, ctx: ctx}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("close session database", "error", err)
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := bufio.NewReader(os.Stdin)
	email := a.v.GetString("email")
	if email == "" {
		email = prompt(reader, "Email: ")
	}
	password := a.v.GetString("password")
	if password == "" {
		password = prompt(reader, "Password: ")
	}
	if email == "" || password == "" {
		return errors.New(appI18n.T(a.ctx, "ErrCredentialsRequired"))
	}

	sess, err := a.client.Login(a.ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	if err := a.store.SaveToken(sess.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := a.store.SaveStudent(sess.Student); err != nil {
		return fmt.Errorf("save student: %w", err)
	}

	fmt.Println(appI18n.Td(a.ctx, "LoginDone", map[string]any{"Name": sess.Student.Name}))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Best effort server side; the local session goes away regardless.
	if err := a.client.Logout(a.ctx); err != nil {
		slog.Warn("server logout failed", "error", err)
	}
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	fmt.Println(appI18n.T(a.ctx, "LogoutDone"))
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := api.RegisterRequest{
		Name:                 a.v.GetString("name"),
		Email:                a.v.GetString("email"),
		Phone:                a.v.GetString("phone"),
		Password:             a.v.GetString("password"),
		PasswordConfirmation: a.v.GetString("password-confirm"),
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errors.New(appI18n.T(a.ctx, "ErrCredentialsRequired"))
	}
	if req.Password != req.PasswordConfirmation {
		return errors.New(appI18n.T(a.ctx, "ErrPasswordMismatch"))
	}

	sess, err := a.client.Register(a.ctx, req)
	if err != nil {
		return err
	}
	if sess.Token != "" {
		if err := a.store.SaveToken(sess.Token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		if err := a.store.SaveStudent(sess.Student); err != nil {
			return fmt.Errorf("save student: %w", err)
		}
	}

	fmt.Println(appI18n.T(a.ctx, "RegisterDone"))
	return nil
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := exam.LoadDashboard(a.ctx, a.client)
	if err != nil {
		return err
	}
	exams := exam.ProbeCompletion(a.ctx, a.client, d.Exams, a.v.GetInt("probe-limit"))

	fmt.Printf("%s\n\n", appI18n.T(a.ctx, "DashboardTitle"))
	fmt.Printf("%s (%s)\n", d.Student.Name, d.Student.Email)
	if d.Student.ScheduleDay != "" {
		fmt.Printf("%s %s\n", d.Student.ScheduleDay, d.Student.ScheduleTime)
	}
	fmt.Println()
	printExamList(a.ctx, exams)
	return nil
}

func runExams(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams, err := a.client.Exams(a.ctx)
	if err != nil {
		return err
	}
	exams = exam.ProbeCompletion(a.ctx, a.client, exams, a.v.GetInt("probe-limit"))

	fmt.Printf("%s\n\n", appI18n.T(a.ctx, "ExamsTitle"))
	printExamList(a.ctx, exams)
	return nil
}

func printExamList(ctx context.Context, exams []model.ExamSummary) {
	for _, e := range exams {
		badge := ""
		if e.Completed {
			badge = "  [" + appI18n.T(ctx, "CompletedBadge") + "]"
		}
		fmt.Printf("%4d  %-30s %s  %s%s\n",
			e.ID, e.Title, e.Code, appI18n.Tp(ctx, "QuestionsCount", e.QuestionCount), badge)
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := exam.LoadStatistics(a.ctx, a.client)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n\n", appI18n.T(a.ctx, "StatsTitle"))
	for _, s := range stats {
		fmt.Printf("%d  %s\n", s.ExamID, appI18n.Td(a.ctx, "ExamCode", map[string]any{"Code": s.ExamCode}))
		if !s.Solved() {
			fmt.Printf("  %s\n\n", appI18n.T(a.ctx, "NotSolvedYet"))
			continue
		}
		for _, t := range s.Topics {
			fmt.Printf("  %-25s %s: %d  %s: %d  %s: %d\n", t.TopicName,
				appI18n.T(a.ctx, "StatusCorrect"), t.Correct,
				appI18n.T(a.ctx, "StatusIncorrect"), t.Incorrect,
				appI18n.T(a.ctx, "StatusBlank"), t.Unanswered)
		}
		c, i, u := s.Totals()
		fmt.Printf("  %-25s %s: %d  %s: %d  %s: %d\n\n", appI18n.T(a.ctx, "TotalRow"),
			appI18n.T(a.ctx, "StatusCorrect"), c,
			appI18n.T(a.ctx, "StatusIncorrect"), i,
			appI18n.T(a.ctx, "StatusBlank"), u)
	}
	return nil
}

func runProfile(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := a.v.GetString("name")
	email := a.v.GetString("email")

	var st model.Student
	if name != "" || email != "" {
		cur, err := a.client.CurrentUser(a.ctx)
		if err != nil {
			return err
		}
		if name == "" {
			name = cur.Name
		}
		if email == "" {
			email = cur.Email
		}
		st, err = a.client.UpdateProfile(a.ctx, name, email)
		if err != nil {
			return err
		}
	} else {
		st, err = a.client.CurrentUser(a.ctx)
		if err != nil {
			return err
		}
	}
	if err := a.store.SaveStudent(st); err != nil {
		return fmt.Errorf("save student: %w", err)
	}

	fmt.Printf("%s (%s)\n", st.Name, st.Email)
	if st.Phone != "" {
		fmt.Println(st.Phone)
	}
	if st.ScheduleDay != "" {
		fmt.Printf("%s %s\n", st.ScheduleDay, st.ScheduleTime)
	}
	return nil
}

func runTake(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	examID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid exam id %q", args[0])
	}

	ex, questions, err := exam.LoadExam(a.ctx, a.client, examID)
	if err != nil {
		return err
	}

	policy := exam.PolicyStrict
	if a.v.GetBool("allow-blank") {
		policy = exam.PolicyAllowBlank
	}
	sheet := exam.NewAnswerSheet(examID, questions, policy)

	fmt.Printf("%s (%s)\n", ex.Title, ex.Code)
	fmt.Println(appI18n.Tp(a.ctx, "QuestionsCount", len(questions)))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for _, q := range questions {
		askQuestion(a.ctx, reader, sheet, q)
	}

	submitter := exam.NewSubmitter(a.client)
	for {
		err := submitter.Submit(a.ctx, sheet)
		if err == nil {
			break
		}
		var incomplete *exam.IncompleteError
		if !errors.As(err, &incomplete) {
			return err
		}
		fmt.Println(appI18n.Td(a.ctx, "UnansweredQuestions",
			map[string]any{"Questions": joinInts(incomplete.Numbers)}))
		for _, q := range sheet.Unanswered() {
			askQuestion(a.ctx, reader, sheet, q)
		}
	}

	fmt.Println(appI18n.T(a.ctx, "SubmitDone"))
	return nil
}

// askQuestion prompts for one question. Empty input or "-" records an
// explicit blank; "s" skips without recording anything.
func askQuestion(ctx context.Context, reader *bufio.Reader, sheet *exam.AnswerSheet, q model.Question) {
	fmt.Printf("%s\n%s\n", appI18n.Td(ctx, "QuestionN", map[string]any{"Number": q.Number}), q.Text)
	for {
		in := prompt(reader, "[A-E, -, s] > ")
		if strings.EqualFold(in, "s") {
			return
		}
		c, err := exam.ParseChoice(in)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := sheet.Record(q.ID, c); err != nil {
			slog.Warn("record answer", "error", err)
		}
		return
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	examID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid exam id %q", args[0])
	}

	rs := exam.NewReviewSession(a.client, examID, a.v.GetBool("broadcast"))
	if err := rs.Load(a.ctx); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		printReview(a.ctx, rs)
		in := prompt(reader, appI18n.T(a.ctx, "ReviewShow")+" > ")
		if in == "" || strings.EqualFold(in, "q") {
			return nil
		}
		answerID, err := strconv.ParseInt(in, 10, 64)
		if err != nil {
			continue
		}
		if rs.Expanded(answerID) {
			rs.Collapse(answerID)
			continue
		}
		if err := rs.Expand(a.ctx, answerID); err != nil {
			if errors.Is(err, exam.ErrReviewNotVisible) {
				fmt.Println(appI18n.T(a.ctx, "ReviewNotVisible"))
				continue
			}
			return err
		}
	}
}

func printReview(ctx context.Context, rs *exam.ReviewSession) {
	ex := rs.Exam()
	fmt.Printf("\n%s (%s)\n\n", ex.Title, ex.Code)
	for _, ans := range rs.Answers() {
		fmt.Printf("%4d  %s  %s\n", ans.AnswerID,
			appI18n.Td(ctx, "YourAnswer", map[string]any{"Answer": displayAnswer(ans.StudentsAnswer)}),
			appI18n.T(ctx, ans.IsCorrect.MessageID()))
		if !rs.Expanded(ans.AnswerID) {
			continue
		}
		if ans.ReviewText != nil && *ans.ReviewText != "" {
			fmt.Printf("      %s\n", *ans.ReviewText)
		}
		if ans.ReviewMedia != nil && *ans.ReviewMedia != "" {
			fmt.Printf("      %s\n", *ans.ReviewMedia)
		}
	}
}

func displayAnswer(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	student, err := a.store.Student()
	if err != nil {
		return fmt.Errorf("load cached student: %w", err)
	}
	var studentID int64
	if student != nil {
		studentID = student.ID
	}

	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt)
	defer stop()

	poller := chat.New(a.client, studentID, a.v.GetDuration("chat-poll-interval"))

	fmt.Println(appI18n.T(ctx, "ChatTitle"))

	var mu sync.Mutex
	seen := make(map[int64]bool)
	printNew := func(msgs []model.ChatMessage) {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range msgs {
			if m.Pending || seen[m.ID] || m.Mine(studentID) {
				continue
			}
			seen[m.ID] = true
			fmt.Printf("[%s] %s\n", appI18n.T(ctx, "SenderTeacher"), m.Body)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- poller.Run(ctx, printNew)
	}()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-errCh:
			return err
		case line, ok := <-lines:
			if !ok {
				stop()
				return <-errCh
			}
			body := strings.TrimSpace(line)
			if body == "" {
				continue
			}
			if err := poller.Send(ctx, body); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Printf("[%s] %s\n", appI18n.T(ctx, "SenderStudent"), body)
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
