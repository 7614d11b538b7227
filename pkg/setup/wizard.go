package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
)

var (
	// ErrAborted indicates the input ended before the wizard finished.
	ErrAborted = errors.New("configuration aborted")
	// ErrNoOptions indicates a menu with nothing to pick.
	ErrNoOptions = errors.New("nothing to choose from")
)

const separator = "--------------------"

// Wizard asks the operator for everything a monitor run needs.
type Wizard struct {
	in      *bufio.Reader
	out     io.Writer
	api     *apple.API
	catalog *Catalog
}

// NewWizard creates a wizard reading answers from in and printing to out.
func NewWizard(in io.Reader, out io.Writer, api *apple.API, catalog *Catalog) *Wizard {
	return &Wizard{
		in:      bufio.NewReader(in),
		out:     out,
		api:     api,
		catalog: catalog,
	}
}

// Run walks through products, pickup area, excluded stores, notification
// credentials, scan interval and the exception alert flag.
func (w *Wizard) Run(ctx context.Context) (*config.MonitorConfig, error) {
	cfg := config.NewMonitorConfig()

	if err := w.selectProducts(cfg); err != nil {
		return nil, err
	}
	if err := w.selectArea(ctx, cfg); err != nil {
		return nil, err
	}
	if err := w.selectExcludedStores(ctx, cfg); err != nil {
		return nil, err
	}
	if err := w.notificationCredentials(cfg); err != nil {
		return nil, err
	}
	if err := w.scanSettings(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *Wizard) selectProducts(cfg *config.MonitorConfig) error {
	for {
		fmt.Fprintln(w.out, separator)
		for i, t := range w.catalog.Types {
			fmt.Fprintf(w.out, "[%d] %s\n", i, t.Name)
		}
		ti, err := w.choose("选择要查的型号：", len(w.catalog.Types))
		if err != nil {
			return err
		}
		productType := w.catalog.Types[ti]

		fmt.Fprintln(w.out, separator)
		for i, c := range productType.Classifications {
			fmt.Fprintf(w.out, "[%d] %s\n", i, c.Name)
		}
		ci, err := w.choose("选择要查的型号子类：", len(productType.Classifications))
		if err != nil {
			return err
		}
		class := productType.Classifications[ci]

		fmt.Fprintln(w.out, separator)
		for i, m := range class.Models {
			fmt.Fprintf(w.out, "[%d] %s\n", i, m.Title)
		}
		mi, err := w.choose("选择要查的具体型号：", len(class.Models))
		if err != nil {
			return err
		}
		model := class.Models[mi]
		cfg.SelectedProducts[model.PartNumber] = config.Product{Classification: class.Name, Title: model.Title}

		fmt.Fprintln(w.out, separator)
		more, err := w.ask("是否添加更多产品[Enter继续添加，非Enter键退出]：")
		if err != nil {
			return err
		}
		if more != "" {
			return nil
		}
	}
}

func (w *Wizard) selectArea(ctx context.Context, cfg *config.MonitorConfig) error {
	fmt.Fprintln(w.out, "选择预约地址：")
	query := url.Values{}
	for step, name := range apple.AddressLevels {
		fmt.Fprintf(w.out, "请稍后...%d/%d\n", step+1, len(apple.AddressLevels))
		lookup, err := w.api.LookupAddress(ctx, query)
		if err != nil {
			return err
		}
		level, err := lookup.Level(name)
		if err != nil {
			return err
		}
		if level.Options == nil {
			query.Set(name, level.Value)
			continue
		}

		fmt.Fprintln(w.out, separator)
		for i, opt := range level.Options {
			fmt.Fprintf(w.out, "[%d] %s\n", i, opt.Value)
		}
		i, err := w.choose("请选择地区：", len(level.Options))
		if err != nil {
			return err
		}
		query.Set(name, level.Options[i].Value)
	}

	fmt.Fprintln(w.out, "正在加载网络资源...")
	lookup, err := w.api.LookupAddress(ctx, query)
	if err != nil {
		return err
	}
	location, err := lookup.Location()
	if err != nil {
		return err
	}
	cfg.SelectedArea = location
	return nil
}

func (w *Wizard) selectExcludedStores(ctx context.Context, cfg *config.MonitorConfig) error {
	fmt.Fprintln(w.out, separator)
	fmt.Fprintf(w.out, "选择的预约地址是：%s，加载预约地址周围直营店...\n", cfg.SelectedArea)

	stores, err := w.api.Stores(ctx, cfg.SelectedArea, cfg.SelectedProducts.PartNumbers()[0])
	if err != nil {
		return err
	}
	for i, s := range stores {
		fmt.Fprintf(w.out, "[%d] %s，地址：%s\n", i, s.StoreName, s.Street())
	}

	for {
		answer, err := w.ask("排除无需监测的直营店，输入序号[直接Enter代表全部监测，多个店序号以空格分隔]：")
		if err != nil {
			return err
		}
		excluded, names, err := pickStores(stores, strings.Fields(answer))
		if err != nil {
			fmt.Fprintln(w.out, err)
			continue
		}
		if len(excluded) > 0 {
			fmt.Fprintf(w.out, "已选择的无需监测直营店：%s\n", strings.Join(names, "，"))
		}
		cfg.ExcludeStores = excluded
		return nil
	}
}

func pickStores(stores []apple.Store, fields []string) ([]string, []string, error) {
	numbers := make([]string, 0, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil || i < 0 || i >= len(stores) {
			return nil, nil, fmt.Errorf("无效的序号：%s", f)
		}
		numbers = append(numbers, stores[i].StoreNumber)
		names = append(names, stores[i].StoreName)
	}
	return numbers, names, nil
}

func (w *Wizard) notificationCredentials(cfg *config.MonitorConfig) error {
	n := &cfg.Notification
	fmt.Fprintln(w.out, separator)
	prompts := []struct {
		prompt string
		dest   *string
	}{
		{"输入钉钉机器人Access Token[如不配置直接Enter即可]：", &n.DingTalk.AccessToken},
		{"输入钉钉机器人Secret Key[如不配置直接Enter即可]：", &n.DingTalk.SecretKey},
		{"输入Telegram机器人Chat ID[如不配置直接Enter即可]：", &n.Telegram.ChatID},
		{"输入Telegram机器人Token[如不配置直接Enter即可]：", &n.Telegram.BotToken},
		{"输入Telegram HTTP代理地址[如不配置直接Enter即可]：", &n.Telegram.HTTPProxy},
		{"输入Bark URL[如不配置直接Enter即可]：", &n.Bark.URL},
	}
	for _, p := range prompts {
		answer, err := w.ask(p.prompt)
		if err != nil {
			return err
		}
		*p.dest = answer
	}
	return nil
}

func (w *Wizard) scanSettings(cfg *config.MonitorConfig) error {
	fmt.Fprintln(w.out, separator)
	for {
		answer, err := w.ask("输入扫描间隔时间[以秒为单位，默认为30秒，如不配置直接Enter即可]：")
		if err != nil {
			return err
		}
		if answer == "" {
			break
		}
		secs, err := strconv.Atoi(answer)
		if err == nil && secs >= 1 {
			cfg.ScanInterval = secs
			break
		}
		fmt.Fprintln(w.out, "请输入正整数")
	}

	fmt.Fprintln(w.out, separator)
	answer, err := w.ask("是否在程序异常时发出通知[Y/n，默认为n]：")
	if err != nil {
		return err
	}
	cfg.AlertException = strings.EqualFold(answer, "y")
	return nil
}

// choose prompts until the answer is an index in [0, n).
func (w *Wizard) choose(prompt string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoOptions, prompt)
	}
	for {
		answer, err := w.ask(prompt)
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(answer)
		if err == nil && i >= 0 && i < n {
			return i, nil
		}
		fmt.Fprintf(w.out, "请输入 0 到 %d 之间的序号\n", n-1)
	}
}

func (w *Wizard) ask(prompt string) (string, error) {
	fmt.Fprint(w.out, prompt)
	line, err := w.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
