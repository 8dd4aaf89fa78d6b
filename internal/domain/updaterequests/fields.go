package updaterequests

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"wcu-registry/internal/domain/registrations"
)

const (
	FieldDogName        = "dog_name"
	FieldBreed          = "breed"
	FieldSex            = "sex"
	FieldColor          = "color"
	FieldBirthDate      = "birth_date"
	FieldPhotoURL       = "photo_url"
	FieldBio            = "bio"
	FieldOwnerName      = "owner_name"
	FieldOwnerPhone     = "owner_phone"
	FieldTributeMessage = "tribute_message"
	FieldDateOfPassing  = "date_of_passing"
	FieldMemorialize    = "memorialize"
)

// EditableFields en el orden en que se muestran en el diff.
var EditableFields = []string{
	FieldDogName,
	FieldBreed,
	FieldSex,
	FieldColor,
	FieldBirthDate,
	FieldPhotoURL,
	FieldBio,
	FieldOwnerName,
	FieldOwnerPhone,
	FieldTributeMessage,
	FieldDateOfPassing,
	FieldMemorialize,
}

var editable = func() map[string]bool {
	m := make(map[string]bool, len(EditableFields))
	for _, f := range EditableFields {
		m[f] = true
	}
	return m
}()

// Nombres viejos que todavía mandan formularios y clientes anteriores.
// Se comparan después de pasar a snake_case.
var legacyKeys = map[string]string{
	"name":             FieldDogName,
	"dob":              FieldBirthDate,
	"birthdate":        FieldBirthDate,
	"date_of_birth":    FieldBirthDate,
	"colour":           FieldColor,
	"photo":            FieldPhotoURL,
	"image_url":        FieldPhotoURL,
	"about":            FieldBio,
	"description":      FieldBio,
	"memorial_message": FieldTributeMessage,
	"tribute":          FieldTributeMessage,
	"passed_on":        FieldDateOfPassing,
	"date_of_death":    FieldDateOfPassing,
	"owner":            FieldOwnerName,
	"phone":            FieldOwnerPhone,
}

// CanonicalKey devuelve la key canónica y si es editable.
func CanonicalKey(k string) (string, bool) {
	k = toSnake(strings.TrimSpace(k))
	if alias, ok := legacyKeys[k]; ok {
		k = alias
	}
	return k, editable[k]
}

// toSnake: dogName -> dog_name, PhotoURL -> photo_url, date-of-birth -> date_of_birth.
func toSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MigrateKeys pasa un mapa crudo a keys canónicas con valores normalizados.
// Si llegan la key canónica y un alias, gana la canónica. Entre alias gana el
// primero en orden alfabético. Devuelve las keys descartadas (no editables).
func MigrateKeys(raw map[string]any) (map[string]any, []string, error) {
	out, dropped, err := migrate(raw)
	if err != nil {
		return nil, nil, err
	}
	// memorialize=false no pide nada.
	if v, ok := out[FieldMemorialize]; ok && v == false {
		delete(out, FieldMemorialize)
	}
	return out, dropped, nil
}

func migrate(raw map[string]any) (map[string]any, []string, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	fromCanonical := make(map[string]bool, len(raw))
	var dropped []string

	for _, k := range keys {
		canon, ok := CanonicalKey(k)
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		isCanonical := strings.TrimSpace(k) == canon
		if _, seen := out[canon]; seen {
			if fromCanonical[canon] || !isCanonical {
				continue
			}
		}

		v, err := normalizeValue(canon, raw[k])
		if err != nil {
			return nil, nil, err
		}
		out[canon] = v
		fromCanonical[canon] = isCanonical
	}
	return out, dropped, nil
}

func normalizeValue(field string, v any) (any, error) {
	switch field {
	case FieldMemorialize:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "yes", "1":
				return true, nil
			case "false", "no", "0", "":
				return false, nil
			}
		}
		return nil, fmt.Errorf("%w: memorialize must be a boolean", ErrInvalidInput)

	case FieldBirthDate, FieldDateOfPassing:
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		// Algunos clientes mandaban timestamps completos.
		if len(s) > 10 {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.UTC().Format("2006-01-02"), nil
			}
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
		}
		return s, nil

	case FieldSex:
		s, _ := v.(string)
		sex, ok := registrations.ParseSex(s)
		if !ok || (v != nil && !isString(v)) {
			return nil, fmt.Errorf("%w: sex must be male, female or unknown", ErrInvalidInput)
		}
		return string(sex), nil

	default:
		if v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, field)
		}
		return strings.TrimSpace(s), nil
	}
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// Diff compara los cambios con el registro vivo. Omite los campos que no cambian.
func Diff(reg registrations.Registration, changes map[string]any) []FieldChange {
	out := make([]FieldChange, 0, len(changes))
	for _, f := range EditableFields {
		proposed, ok := changes[f]
		if !ok {
			continue
		}
		current := currentValue(reg, f)
		if current == proposed {
			continue
		}
		out = append(out, FieldChange{Field: f, Current: current, Proposed: proposed})
	}
	return out
}

func currentValue(reg registrations.Registration, field string) any {
	date := func(t *time.Time) any {
		if t == nil {
			return nil
		}
		return t.Format("2006-01-02")
	}
	switch field {
	case FieldDogName:
		return reg.DogName
	case FieldBreed:
		return reg.Breed
	case FieldSex:
		return string(reg.Sex)
	case FieldColor:
		return reg.Color
	case FieldBirthDate:
		return date(reg.BirthDate)
	case FieldPhotoURL:
		return reg.PhotoURL
	case FieldBio:
		return reg.Bio
	case FieldOwnerName:
		return reg.OwnerName
	case FieldOwnerPhone:
		return reg.OwnerPhone
	case FieldTributeMessage:
		return reg.TributeMessage
	case FieldDateOfPassing:
		return date(reg.DateOfPassing)
	case FieldMemorialize:
		return reg.Status == registrations.StatusMemorial
	}
	return nil
}

// toPatch convierte cambios canónicos en un patch del registro (sin memorialize).
func toPatch(changes map[string]any) (registrations.PatchInput, error) {
	var p registrations.PatchInput

	str := func(f string) *string {
		v, ok := changes[f]
		if !ok {
			return nil
		}
		s, _ := v.(string)
		return &s
	}
	date := func(f string) (registrations.PatchDate, error) {
		v, ok := changes[f]
		if !ok {
			return registrations.PatchDate{}, nil
		}
		s, _ := v.(string)
		t, err := registrations.ParseDate(s)
		if err != nil {
			return registrations.PatchDate{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, f)
		}
		return registrations.PatchDate{Present: true, Value: t}, nil
	}

	p.DogName = str(FieldDogName)
	p.Breed = str(FieldBreed)
	p.Sex = str(FieldSex)
	p.Color = str(FieldColor)
	p.PhotoURL = str(FieldPhotoURL)
	p.Bio = str(FieldBio)
	p.OwnerName = str(FieldOwnerName)
	p.OwnerPhone = str(FieldOwnerPhone)
	p.TributeMessage = str(FieldTributeMessage)

	var err error
	if p.BirthDate, err = date(FieldBirthDate); err != nil {
		return registrations.PatchInput{}, err
	}
	if p.DateOfPassing, err = date(FieldDateOfPassing); err != nil {
		return registrations.PatchInput{}, err
	}
	return p, nil
}
