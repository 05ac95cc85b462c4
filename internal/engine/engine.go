// Package engine drives the synchronization loop: acquire a snapshot from
// every sensor, derive the presentation values, and publish each field
// into its state tree slot, every interval, until cancelled.
package engine

import (
	"context"
	"time"

	"codeberg.org/varken/sensorbridge/internal/errors"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"codeberg.org/varken/sensorbridge/internal/sensor"
	"codeberg.org/varken/sensorbridge/internal/statetree"
	"github.com/benbjohnson/clock"
)

// State tree group names, one per sensor plus the system group.
const (
	GroupThermalHumidity = "DHT11_Sensor"
	GroupPowerMonitor    = "INA219_PowerMonitor"
	GroupRanging         = "HCSR04_Distance"
	GroupSystem          = "SystemInfo"
)

// Broadcaster receives one payload per published cycle. Implementations
// must not block.
type Broadcaster interface {
	BroadcastState(v any)
}

type Engine struct {
	reader      *sensor.Reader
	tree        *statetree.Tree
	broadcaster Broadcaster
	clk         clock.Clock
	interval    time.Duration
	startedAt   time.Time
	slots       *slotSet
}

// slotSet keeps the provisioned slot handles so publishing never goes
// through a name lookup.
type slotSet struct {
	temperatureC  *statetree.Slot
	temperatureF  *statetree.Slot
	humidity      *statetree.Slot
	thermalStatus *statetree.Slot

	voltage     *statetree.Slot
	current     *statetree.Slot
	power       *statetree.Slot
	powerStatus *statetree.Slot

	distanceCm    *statetree.Slot
	distanceIn    *statetree.Slot
	rangingStatus *statetree.Slot

	lastUpdate *statetree.Slot
	uptime     *statetree.Slot
}

func New(reader *sensor.Reader, tree *statetree.Tree, broadcaster Broadcaster, clk clock.Clock, interval time.Duration) *Engine {
	if clk == nil {
		clk = clock.New()
	}

	return &Engine{
		reader:      reader,
		tree:        tree,
		broadcaster: broadcaster,
		clk:         clk,
		interval:    interval,
		startedAt:   clk.Now(),
	}
}

// ProvisionSlots creates every exposed field in the state tree, grouped
// by sensor. All slots are writable so remote clients can override values
// for testing; the next cycle overwrites them.
func (e *Engine) ProvisionSlots() {
	thermal := e.tree.Group(GroupThermalHumidity)
	power := e.tree.Group(GroupPowerMonitor)
	ranging := e.tree.Group(GroupRanging)
	system := e.tree.Group(GroupSystem)

	e.slots = &slotSet{
		temperatureC:  thermal.CreateSlot("Temperature_C", 0.0),
		temperatureF:  thermal.CreateSlot("Temperature_F", 0.0),
		humidity:      thermal.CreateSlot("Humidity_Percent", 0.0),
		thermalStatus: thermal.CreateSlot("Status", 0),

		voltage:     power.CreateSlot("Voltage_V", 0.0),
		current:     power.CreateSlot("Current_A", 0.0),
		power:       power.CreateSlot("Power_W", 0.0),
		powerStatus: power.CreateSlot("Status", 0),

		distanceCm:    ranging.CreateSlot("Distance_cm", 0.0),
		distanceIn:    ranging.CreateSlot("Distance_inches", 0.0),
		rangingStatus: ranging.CreateSlot("Status", 0),

		lastUpdate: system.CreateSlot("LastUpdate", ""),
		uptime:     system.CreateSlot("Uptime_seconds", 0.0),
	}

	for _, slot := range []*statetree.Slot{
		e.slots.temperatureC, e.slots.temperatureF, e.slots.humidity, e.slots.thermalStatus,
		e.slots.voltage, e.slots.current, e.slots.power, e.slots.powerStatus,
		e.slots.distanceCm, e.slots.distanceIn, e.slots.rangingStatus,
		e.slots.lastUpdate, e.slots.uptime,
	} {
		slot.SetWritable()
	}

	logger.Debug().Msg("state tree slots provisioned")
}

// Run executes synchronization cycles until ctx is cancelled. Sensor
// failures never end the loop; they surface only as status slots.
func (e *Engine) Run(ctx context.Context) error {
	if e.interval <= 0 {
		return errors.New(ErrInvalidInterval)
	}
	if e.slots == nil {
		return errors.New(ErrNotProvisioned)
	}

	ticker := e.clk.Ticker(e.interval)
	defer ticker.Stop()

	// First cycle runs immediately so the tree never serves the
	// provisioned placeholders as if a read produced them.
	e.cycle()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("synchronization loop stopped")
			return nil
		case <-ticker.C:
			e.cycle()
		}
	}
}

func (e *Engine) cycle() {
	snapshot := e.reader.ReadAll()
	derived := sensor.Derive(snapshot, e.startedAt, e.clk.Now())

	e.publish(derived)
	if e.broadcaster != nil {
		e.broadcaster.BroadcastState(newStatePayload(derived))
	}

	logCycle(derived)
}

// publish writes one slot per field. There is no atomicity across slots:
// a remote reader may see a torn mix of old and new values mid-publish.
func (e *Engine) publish(d sensor.DerivedSnapshot) {
	e.slots.temperatureC.Write(d.ThermalHumidity.TemperatureC)
	e.slots.temperatureF.Write(d.TemperatureF)
	e.slots.humidity.Write(d.ThermalHumidity.HumidityPct)
	e.slots.thermalStatus.Write(int(d.ThermalHumidityStatus))

	e.slots.voltage.Write(d.Power.VoltageV)
	e.slots.current.Write(d.Power.CurrentA)
	e.slots.power.Write(d.Power.PowerW)
	e.slots.powerStatus.Write(int(d.PowerStatus))

	e.slots.distanceCm.Write(d.Ranging.DistanceCm)
	e.slots.distanceIn.Write(d.DistanceIn)
	e.slots.rangingStatus.Write(int(d.RangingStatus))

	e.slots.lastUpdate.Write(d.FormattedTimestamp)
	e.slots.uptime.Write(d.UptimeSeconds)
}

// statePayload is the wire form of one published cycle for websocket
// subscribers.
type statePayload struct {
	TemperatureC  float64 `json:"Temperature_C"`
	TemperatureF  float64 `json:"Temperature_F"`
	Humidity      float64 `json:"Humidity_Percent"`
	ThermalStatus int     `json:"DHT11_Status"`

	VoltageV    float64 `json:"Voltage_V"`
	CurrentA    float64 `json:"Current_A"`
	PowerW      float64 `json:"Power_W"`
	PowerStatus int     `json:"INA219_Status"`

	DistanceCm    float64 `json:"Distance_cm"`
	DistanceIn    float64 `json:"Distance_inches"`
	RangingStatus int     `json:"HCSR04_Status"`

	LastUpdate    string  `json:"LastUpdate"`
	UptimeSeconds float64 `json:"Uptime_seconds"`
}

func newStatePayload(d sensor.DerivedSnapshot) statePayload {
	return statePayload{
		TemperatureC:  d.ThermalHumidity.TemperatureC,
		TemperatureF:  d.TemperatureF,
		Humidity:      d.ThermalHumidity.HumidityPct,
		ThermalStatus: int(d.ThermalHumidityStatus),
		VoltageV:      d.Power.VoltageV,
		CurrentA:      d.Power.CurrentA,
		PowerW:        d.Power.PowerW,
		PowerStatus:   int(d.PowerStatus),
		DistanceCm:    d.Ranging.DistanceCm,
		DistanceIn:    d.DistanceIn,
		RangingStatus: int(d.RangingStatus),
		LastUpdate:    d.FormattedTimestamp,
		UptimeSeconds: d.UptimeSeconds,
	}
}

// logCycle emits one line per cycle. As long as at least one sensor
// produced values they are logged at info, statuses alongside; a cycle
// with every sensor failed is routine noise and stays at debug.
func logCycle(d sensor.DerivedSnapshot) {
	if allSensorsFailed(d) {
		logger.Debug().
			Str("dht11_status", d.ThermalHumidityStatus.String()).
			Str("ina219_status", d.PowerStatus.String()).
			Str("hcsr04_status", d.RangingStatus.String()).
			Msg("updated with all sensors failed")
		return
	}

	logger.Info().
		Float64("temperature_c", d.ThermalHumidity.TemperatureC).
		Float64("humidity_pct", d.ThermalHumidity.HumidityPct).
		Float64("voltage_v", d.Power.VoltageV).
		Float64("current_a", d.Power.CurrentA).
		Float64("distance_cm", d.Ranging.DistanceCm).
		Str("dht11_status", d.ThermalHumidityStatus.String()).
		Str("ina219_status", d.PowerStatus.String()).
		Str("hcsr04_status", d.RangingStatus.String()).
		Msg("updated")
}

func allSensorsFailed(d sensor.DerivedSnapshot) bool {
	return d.ThermalHumidityStatus != sensor.StatusOK &&
		d.PowerStatus != sensor.StatusOK &&
		d.RangingStatus != sensor.StatusOK
}
