package keymap

import "fmt"

// Code is a logical key code. Values follow the Linux input event codes.
type Code uint16

// Key codes used by the accessory layouts.
const (
	KeyReserved   Code = 0
	KeyEsc        Code = 1
	Key1          Code = 2
	Key2          Code = 3
	Key3          Code = 4
	Key4          Code = 5
	Key5          Code = 6
	Key6          Code = 7
	Key7          Code = 8
	Key8          Code = 9
	Key9          Code = 10
	Key0          Code = 11
	KeyMinus      Code = 12
	KeyEqual      Code = 13
	KeyBackspace  Code = 14
	KeyTab        Code = 15
	KeyQ          Code = 16
	KeyW          Code = 17
	KeyE          Code = 18
	KeyR          Code = 19
	KeyT          Code = 20
	KeyY          Code = 21
	KeyU          Code = 22
	KeyI          Code = 23
	KeyO          Code = 24
	KeyP          Code = 25
	KeyEnter      Code = 28
	KeyLeftCtrl   Code = 29
	KeyA          Code = 30
	KeyS          Code = 31
	KeyD          Code = 32
	KeyF          Code = 33
	KeyG          Code = 34
	KeyH          Code = 35
	KeyJ          Code = 36
	KeyK          Code = 37
	KeyL          Code = 38
	KeySemicolon  Code = 39
	KeyApostrophe Code = 40
	KeyGrave      Code = 41
	KeyLeftShift  Code = 42
	KeyBackslash  Code = 43
	KeyZ          Code = 44
	KeyX          Code = 45
	KeyC          Code = 46
	KeyV          Code = 47
	KeyB          Code = 48
	KeyN          Code = 49
	KeyM          Code = 50
	KeyComma      Code = 51
	KeyDot        Code = 52
	KeySlash      Code = 53
	KeyRightShift Code = 54
	KeyLeftAlt    Code = 56
	KeySpace      Code = 57
	KeyCapsLock   Code = 58
	KeyRightAlt   Code = 100
	KeyUp         Code = 103
	KeyLeft       Code = 105
	KeyRight      Code = 106
	KeyEnd        Code = 107
	KeyDown       Code = 108
	KeyRightMeta  Code = 126
)

var codeNames = map[Code]string{
	KeyReserved: "KEY_RESERVED", KeyEsc: "KEY_ESC",
	Key1: "KEY_1", Key2: "KEY_2", Key3: "KEY_3", Key4: "KEY_4", Key5: "KEY_5",
	Key6: "KEY_6", Key7: "KEY_7", Key8: "KEY_8", Key9: "KEY_9", Key0: "KEY_0",
	KeyMinus: "KEY_MINUS", KeyEqual: "KEY_EQUAL", KeyBackspace: "KEY_BACKSPACE", KeyTab: "KEY_TAB",
	KeyQ: "KEY_Q", KeyW: "KEY_W", KeyE: "KEY_E", KeyR: "KEY_R", KeyT: "KEY_T",
	KeyY: "KEY_Y", KeyU: "KEY_U", KeyI: "KEY_I", KeyO: "KEY_O", KeyP: "KEY_P",
	KeyEnter: "KEY_ENTER", KeyLeftCtrl: "KEY_LEFTCTRL",
	KeyA: "KEY_A", KeyS: "KEY_S", KeyD: "KEY_D", KeyF: "KEY_F", KeyG: "KEY_G",
	KeyH: "KEY_H", KeyJ: "KEY_J", KeyK: "KEY_K", KeyL: "KEY_L",
	KeySemicolon: "KEY_SEMICOLON", KeyApostrophe: "KEY_APOSTROPHE", KeyGrave: "KEY_GRAVE",
	KeyLeftShift: "KEY_LEFTSHIFT", KeyBackslash: "KEY_BACKSLASH",
	KeyZ: "KEY_Z", KeyX: "KEY_X", KeyC: "KEY_C", KeyV: "KEY_V", KeyB: "KEY_B",
	KeyN: "KEY_N", KeyM: "KEY_M", KeyComma: "KEY_COMMA", KeyDot: "KEY_DOT", KeySlash: "KEY_SLASH",
	KeyRightShift: "KEY_RIGHTSHIFT", KeyLeftAlt: "KEY_LEFTALT", KeySpace: "KEY_SPACE",
	KeyCapsLock: "KEY_CAPSLOCK", KeyRightAlt: "KEY_RIGHTALT",
	KeyUp: "KEY_UP", KeyLeft: "KEY_LEFT", KeyRight: "KEY_RIGHT", KeyEnd: "KEY_END", KeyDown: "KEY_DOWN",
	KeyRightMeta: "KEY_RIGHTMETA",
}

// String returns the input subsystem name of the key code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", uint16(c))
}

// LED identifies an indicator light on the keyboard.
type LED uint8

// Indicator codes.
const (
	LEDCapsLock LED = 0x01
	LEDMisc     LED = 0x08
)

// String returns the input subsystem name of the indicator.
func (l LED) String() string {
	switch l {
	case LEDCapsLock:
		return "LED_CAPSL"
	case LEDMisc:
		return "LED_MISC"
	default:
		return fmt.Sprintf("LED_%d", uint8(l))
	}
}
