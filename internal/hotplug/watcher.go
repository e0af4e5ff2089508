package hotplug

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"multicam/internal/config"
	"multicam/internal/logging"
)

// Action is the kind of hotplug transition.
type Action string

const (
	Attached Action = "attached"
	Detached Action = "detached"
)

// Event describes a USB camera attach or detach.
type Event struct {
	Action    Action
	VendorID  string
	ProductID string
	Serial    string
	Model     string
	DevPath   string
}

// Handler receives matched events. It runs on the watcher goroutine.
type Handler func(ctx context.Context, event Event)

var vendorPattern = regexp.MustCompile(`^[0-9a-f]{4}$`)

// Watcher listens for udev netlink events on the usb subsystem.
type Watcher struct {
	logger    *slog.Logger
	vendorIDs []string
	handler   Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// New creates a watcher filtered to the configured vendor ids. An empty
// vendor list matches every USB device.
func New(cfg config.Hotplug, logger *slog.Logger, handler Handler) *Watcher {
	ids := make([]string, 0, len(cfg.VendorIDs))
	for _, id := range cfg.VendorIDs {
		id = strings.ToLower(strings.TrimSpace(id))
		if vendorPattern.MatchString(id) {
			ids = append(ids, id)
		}
	}
	return &Watcher{
		logger:    logging.NewComponentLogger(logger, "hotplug"),
		vendorIDs: ids,
		handler:   handler,
	}
}

// Start connects to the udev netlink socket and begins delivering events.
// A failed connection is logged and reported so the caller can decide
// whether watching is required.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the process may open NETLINK_KOBJECT_UEVENT sockets"),
			logging.String(logging.FieldImpact, "camera hotplug events unavailable"),
		)
		return fmt.Errorf("connect netlink: %w", err)
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.loop(ctx, conn, quit)

	w.logger.Info("hotplug watcher started",
		logging.String(logging.FieldEventType, "hotplug_started"),
		logging.String("vendor_ids", strings.Join(w.vendorIDs, ",")),
	)
	return nil
}

// Stop shuts down the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Info("hotplug watcher stopped",
		logging.String(logging.FieldEventType, "hotplug_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, w.matcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handle(ctx, uevent)
		case err := <-errs:
			w.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "hotplug events may be missed"),
			)
		}
	}
}

// matcher accepts whole-device usb add/remove events, one rule per vendor.
func (w *Watcher) matcher() netlink.Matcher {
	action := "^(add|remove)$"
	rules := &netlink.RuleDefinitions{}
	if len(w.vendorIDs) == 0 {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": "^usb$",
				"DEVTYPE":   "^usb_device$",
			},
		})
		return rules
	}
	for _, id := range w.vendorIDs {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM":    "^usb$",
				"DEVTYPE":      "^usb_device$",
				"ID_VENDOR_ID": "^" + id + "$",
			},
		})
	}
	return rules
}

func (w *Watcher) handle(ctx context.Context, uevent netlink.UEvent) {
	event, ok := parseEvent(uevent)
	if !ok {
		w.logger.Debug("ignoring unrecognized usb event",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if !w.wants(event.VendorID) {
		return
	}

	w.logger.Info("usb camera "+string(event.Action),
		logging.String(logging.FieldEventType, "camera_"+string(event.Action)),
		logging.String(logging.FieldCameraSerial, event.Serial),
		logging.String("vendor_id", event.VendorID),
		logging.String("product_id", event.ProductID),
		logging.String("model", event.Model),
	)
	if w.handler != nil {
		w.handler(ctx, event)
	}
}

func (w *Watcher) wants(vendorID string) bool {
	if len(w.vendorIDs) == 0 {
		return true
	}
	for _, id := range w.vendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}

// parseEvent converts a raw uevent. Vendor and product ids come from udev
// properties when present and from the kernel PRODUCT variable otherwise.
func parseEvent(uevent netlink.UEvent) (Event, bool) {
	var action Action
	switch uevent.Action {
	case netlink.ADD:
		action = Attached
	case netlink.REMOVE:
		action = Detached
	default:
		return Event{}, false
	}

	env := uevent.Env
	event := Event{
		Action:    action,
		VendorID:  strings.ToLower(env["ID_VENDOR_ID"]),
		ProductID: strings.ToLower(env["ID_MODEL_ID"]),
		Serial:    env["ID_SERIAL_SHORT"],
		Model:     env["ID_MODEL"],
		DevPath:   env["DEVPATH"],
	}
	if event.VendorID == "" || event.ProductID == "" {
		vendor, product, ok := parseProduct(env["PRODUCT"])
		if !ok {
			return Event{}, false
		}
		if event.VendorID == "" {
			event.VendorID = vendor
		}
		if event.ProductID == "" {
			event.ProductID = product
		}
	}
	if event.DevPath == "" {
		event.DevPath = uevent.KObj
	}
	return event, true
}

// parseProduct splits the kernel "vid/pid/bcd" form, which drops leading zeros.
func parseProduct(value string) (string, string, bool) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return pad4(parts[0]), pad4(parts[1]), true
}

func pad4(hex string) string {
	hex = strings.ToLower(hex)
	for len(hex) < 4 {
		hex = "0" + hex
	}
	return hex
}
