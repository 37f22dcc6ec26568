// Package table holds the Dynamixel Protocol 2.0 control-table catalogue:
// the closed set of register addresses, widths, and labels that the codec,
// bus, and actuator packages address by name instead of by raw byte.
package table

// ID names a single control-table register. The catalogue is closed: every
// register a Protocol 2.0 actuator exposes in the scope of this driver has
// an ID below, and no others are recognized.
type ID int

const (
	ModelNumber ID = iota
	ModelInformation
	FirmwareVersion
	Id
	BaudRate
	ReturnDelayTime
	DriveMode
	OperatingMode
	SecondaryId
	ProtocolType
	HomingOffset
	MovingThreshold
	TemperatureLimit
	MaxVoltageLimit
	MinVoltageLimit
	PWMLimit
	CurrentLimit
	VelocityLimit
	MaxPositionLimit
	MinPositionLimit
	StartupConfiguration
	PWMSlope
	Shutdown
	TorqueEnable
	LED
	StatusReturnLevel
	RegisteredInstruction
	HardwareErrorStatus
	VelocityIGain
	VelocityPGain
	PositionDGain
	PositionIGain
	PositionPGain
	Feedforward2ndGain
	Feedforward1stGain
	BusWatchdog
	GoalPWM
	GoalCurrent
	GoalVelocity
	ProfileAcceleration
	ProfileVelocity
	GoalPosition
	RealtimeTick
	Moving
	MovingStatus
	PresentPWM
	PresentCurrent
	PresentVelocity
	PresentPosition
	VelocityTrajectory
	PositionTrajectory
	PresentInputVoltage
	PresentTemperature
	BackupReady

	idCount
)

// Item is a single control-table entry: its address, its width in bytes,
// and a human label for diagnostics.
type Item struct {
	Address byte
	Width   uint8
	Label   string
}

var catalogue = [idCount]Item{
	ModelNumber:            {0, 2, "Model Number"},
	ModelInformation:       {2, 4, "Model Information"},
	FirmwareVersion:        {6, 1, "Firmware Version"},
	Id:                     {7, 1, "ID"},
	BaudRate:               {8, 1, "Baud Rate"},
	ReturnDelayTime:        {9, 1, "Return Delay Time"},
	DriveMode:              {10, 1, "Drive Mode"},
	OperatingMode:          {11, 1, "Operating Mode"},
	SecondaryId:            {12, 1, "Secondary ID"},
	ProtocolType:           {13, 1, "Protocol Type"},
	HomingOffset:           {20, 4, "Homing Offset"},
	MovingThreshold:        {24, 4, "Moving Threshold"},
	TemperatureLimit:       {31, 1, "Temperature Limit"},
	MaxVoltageLimit:        {32, 2, "Max Voltage Limit"},
	MinVoltageLimit:        {34, 2, "Min Voltage Limit"},
	PWMLimit:               {36, 2, "PWM Limit"},
	CurrentLimit:           {38, 2, "Current Limit"},
	VelocityLimit:          {44, 4, "Velocity Limit"},
	MaxPositionLimit:       {48, 4, "Max Position Limit"},
	MinPositionLimit:       {52, 4, "Min Position Limit"},
	StartupConfiguration:   {60, 1, "Startup Configuration"},
	PWMSlope:               {62, 1, "PWM Slope"},
	Shutdown:               {63, 1, "Shutdown"},
	TorqueEnable:           {64, 1, "Torque Enable"},
	LED:                    {65, 1, "LED"},
	StatusReturnLevel:      {68, 1, "Status Return Level"},
	RegisteredInstruction:  {69, 1, "Registered Instruction"},
	HardwareErrorStatus:    {70, 1, "Hardware Error Status"},
	VelocityIGain:          {76, 2, "Velocity I Gain"},
	VelocityPGain:          {78, 2, "Velocity P Gain"},
	PositionDGain:          {80, 2, "Position D Gain"},
	PositionIGain:          {82, 2, "Position I Gain"},
	PositionPGain:          {84, 2, "Position P Gain"},
	Feedforward2ndGain:     {88, 2, "Feedforward 2nd Gain"},
	Feedforward1stGain:     {90, 2, "Feedforward 1st Gain"},
	BusWatchdog:            {98, 1, "Bus Watchdog"},
	GoalPWM:                {100, 2, "Goal PWM"},
	GoalCurrent:            {102, 2, "Goal Current"},
	GoalVelocity:           {104, 4, "Goal Velocity"},
	ProfileAcceleration:    {108, 4, "Profile Acceleration"},
	ProfileVelocity:        {112, 4, "Profile Velocity"},
	GoalPosition:           {116, 4, "Goal Position"},
	RealtimeTick:           {120, 2, "Realtime Tick"},
	Moving:                 {122, 1, "Moving"},
	MovingStatus:           {123, 1, "Moving Status"},
	PresentPWM:             {124, 2, "Present PWM"},
	PresentCurrent:         {126, 2, "Present Current"},
	PresentVelocity:        {128, 4, "Present Velocity"},
	PresentPosition:        {132, 4, "Present Position"},
	VelocityTrajectory:     {136, 4, "Velocity Trajectory"},
	PositionTrajectory:     {140, 4, "Position Trajectory"},
	PresentInputVoltage:    {144, 2, "Present Input Voltage"},
	PresentTemperature:     {146, 1, "Present Temperature"},
	BackupReady:            {147, 1, "Backup Ready"},
}

// Entry looks up a register's address, width, and label. It panics if id is
// outside the closed catalogue, since every ID constant above is valid by
// construction — an out-of-range value can only come from an invalid cast.
func Entry(id ID) Item {
	if id < 0 || id >= idCount {
		panic("table: id out of range")
	}
	return catalogue[id]
}

// BaudRates maps a Baud Rate register value to bits/s, per the Protocol 2.0
// baud-rate enumeration.
var BaudRates = map[byte]int{
	0: 9600,
	1: 57600,
	2: 115200,
	3: 1_000_000,
	4: 2_000_000,
	5: 3_000_000,
	6: 4_000_000,
}
