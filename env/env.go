package env

type Args struct {
	Test    *bool
	Verbose *bool
	SDRoot  *string
	I2CBus  *string
	Bmx1    *bool
	Bmx2    *bool
	Mcp1    *bool
	Mcp2    *bool
	Windon  *bool
	NoRadio *bool
	GPS     *string
}
