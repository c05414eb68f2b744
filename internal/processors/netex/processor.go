package netex

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"turnstile/internal/etl"
)

// FormatID is the registry identifier for NeTEx publication documents.
const FormatID = "netex"

// Processor parses NeTEx XML documents.
type Processor struct{}

// New constructs a NeTEx processor.
func New() *Processor { return &Processor{} }

// Format returns the registry identifier.
func (*Processor) Format() string { return FormatID }

// Extract reads the document into memory and streams flattened records for
// the mapped element subset.
func (*Processor) Extract(ctx context.Context, path string) (etl.RecordIterator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, etl.Wrap(etl.ErrSourceUnavailable, "netex", "open document", path, err)
	}
	return &iterator{
		ctx:     ctx,
		data:    data,
		decoder: xml.NewDecoder(bytes.NewReader(data)),
		rows:    make(map[string]int),
	}, nil
}

type refXML struct {
	Ref string `xml:"ref,attr"`
}

type operatorXML struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"Name"`
	URL      string `xml:"ContactDetails>Url"`
	TimeZone string `xml:"Locale>TimeZone"`
}

type lineXML struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"Name"`
	PublicCode    string `xml:"PublicCode"`
	TransportMode string `xml:"TransportMode"`
	OperatorRef   refXML `xml:"OperatorRef"`
	Colour        string `xml:"Presentation>Colour"`
	TextColour    string `xml:"Presentation>TextColour"`
}

type locationXML struct {
	Latitude  string `xml:"Location>Latitude"`
	Longitude string `xml:"Location>Longitude"`
}

type quayXML struct {
	ID       string      `xml:"id,attr"`
	Name     string      `xml:"Name"`
	Centroid locationXML `xml:"Centroid"`
}

type stopPlaceXML struct {
	ID       string      `xml:"id,attr"`
	Name     string      `xml:"Name"`
	Centroid locationXML `xml:"Centroid"`
	Quays    []quayXML   `xml:"quays>Quay"`
}

type passingTimeXML struct {
	StopPointRef    refXML `xml:"StopPointInJourneyPatternRef"`
	ScheduledRef    refXML `xml:"ScheduledStopPointRef"`
	ArrivalTime     string `xml:"ArrivalTime"`
	ArrivalOffset   string `xml:"ArrivalDayOffset"`
	DepartureTime   string `xml:"DepartureTime"`
	DepartureOffset string `xml:"DepartureDayOffset"`
}

type serviceJourneyXML struct {
	ID           string           `xml:"id,attr"`
	Name         string           `xml:"Name"`
	LineRef      refXML           `xml:"LineRef"`
	DayTypes     []refXML         `xml:"dayTypes>DayTypeRef"`
	PassingTimes []passingTimeXML `xml:"passingTimes>TimetabledPassingTime"`
}

type dayTypeXML struct {
	ID         string `xml:"id,attr"`
	DaysOfWeek string `xml:"properties>PropertyOfDay>DaysOfWeek"`
}

// iterator walks the token stream, queueing one or more flattened records per
// mapped element. Frame-level defaults (timezone, calendar period) are picked
// up as they appear and applied to later elements.
type iterator struct {
	ctx     context.Context
	data    []byte
	decoder *xml.Decoder
	pending []etl.RawRecord
	record  etl.RawRecord
	rows    map[string]int
	err     error
	done    bool

	defaultTimezone string
	periodFrom      string
	periodTo        string
}

func (it *iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if err := it.ctx.Err(); err != nil {
			it.err = err
			return false
		}
		if len(it.pending) > 0 {
			it.record = it.pending[0]
			it.pending = it.pending[1:]
			return true
		}
		if it.done {
			return false
		}
		if err := it.advance(); err != nil {
			if errors.Is(err, io.EOF) {
				it.done = true
				continue
			}
			it.err = etl.Wrap(etl.ErrExtract, "netex", "parse document", "", err)
			return false
		}
	}
}

func (it *iterator) Record() etl.RawRecord { return it.record }

func (it *iterator) Err() error { return it.err }

func (it *iterator) Close() error { return nil }

// advance consumes tokens until one mapped element has been decoded or the
// document ends.
func (it *iterator) advance() error {
	for {
		offset := it.decoder.InputOffset()
		token, err := it.decoder.Token()
		if err != nil {
			return err
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "FrameDefaults":
			var defaults struct {
				TimeZone string `xml:"DefaultLocale>TimeZone"`
			}
			if err := it.decoder.DecodeElement(&defaults, &start); err != nil {
				return err
			}
			it.defaultTimezone = defaults.TimeZone
		case "ServiceCalendar":
			return it.decodeServiceCalendar(&start)
		case "Operator":
			var op operatorXML
			raw, err := it.decodeRaw(&op, &start, offset)
			if err != nil {
				return err
			}
			tz := op.TimeZone
			if tz == "" {
				tz = it.defaultTimezone
			}
			it.push("Operator", raw, map[string]string{
				"id": op.ID, "name": op.Name, "url": op.URL, "timezone": tz,
			})
			return nil
		case "Line":
			var line lineXML
			raw, err := it.decodeRaw(&line, &start, offset)
			if err != nil {
				return err
			}
			it.push("Line", raw, map[string]string{
				"id":             line.ID,
				"name":           line.Name,
				"public_code":    line.PublicCode,
				"transport_mode": line.TransportMode,
				"operator_ref":   line.OperatorRef.Ref,
				"colour":         line.Colour,
				"text_colour":    line.TextColour,
			})
			return nil
		case "StopPlace":
			var place stopPlaceXML
			raw, err := it.decodeRaw(&place, &start, offset)
			if err != nil {
				return err
			}
			it.push("StopPlace", raw, map[string]string{
				"id":        place.ID,
				"name":      place.Name,
				"latitude":  place.Centroid.Latitude,
				"longitude": place.Centroid.Longitude,
			})
			for _, quay := range place.Quays {
				it.push("Quay", raw, map[string]string{
					"id":        quay.ID,
					"name":      quay.Name,
					"latitude":  quay.Centroid.Latitude,
					"longitude": quay.Centroid.Longitude,
					"parent":    place.ID,
				})
			}
			return nil
		case "ServiceJourney":
			var journey serviceJourneyXML
			raw, err := it.decodeRaw(&journey, &start, offset)
			if err != nil {
				return err
			}
			dayTypeRef := ""
			if len(journey.DayTypes) > 0 {
				dayTypeRef = journey.DayTypes[0].Ref
			}
			it.push("ServiceJourney", raw, map[string]string{
				"id":           journey.ID,
				"name":         journey.Name,
				"line_ref":     journey.LineRef.Ref,
				"day_type_ref": dayTypeRef,
			})
			for i, pt := range journey.PassingTimes {
				stopRef := pt.ScheduledRef.Ref
				if stopRef == "" {
					stopRef = pt.StopPointRef.Ref
				}
				it.push("TimetabledPassingTime", raw, map[string]string{
					"journey_ref":      journey.ID,
					"order":            strconv.Itoa(i + 1),
					"stop_ref":         stopRef,
					"arrival":          pt.ArrivalTime,
					"arrival_offset":   pt.ArrivalOffset,
					"departure":        pt.DepartureTime,
					"departure_offset": pt.DepartureOffset,
				})
			}
			return nil
		case "DayType":
			var day dayTypeXML
			raw, err := it.decodeRaw(&day, &start, offset)
			if err != nil {
				return err
			}
			it.push("DayType", raw, map[string]string{
				"id":           day.ID,
				"days_of_week": day.DaysOfWeek,
				"from_date":    it.periodFrom,
				"to_date":      it.periodTo,
			})
			return nil
		}
	}
}

// decodeServiceCalendar records the calendar period but keeps walking inside
// the element so nested DayTypes are still seen.
func (it *iterator) decodeServiceCalendar(start *xml.StartElement) error {
	depth := 1
	for depth > 0 {
		offset := it.decoder.InputOffset()
		token, err := it.decoder.Token()
		if err != nil {
			return err
		}
		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "FromDate":
				it.periodFrom = it.text(&tok)
			case "ToDate":
				it.periodTo = it.text(&tok)
			case "DayType":
				var day dayTypeXML
				raw, err := it.decodeRaw(&day, &tok, offset)
				if err != nil {
					return err
				}
				it.push("DayType", raw, map[string]string{
					"id":           day.ID,
					"days_of_week": day.DaysOfWeek,
					"from_date":    it.periodFrom,
					"to_date":      it.periodTo,
				})
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func (it *iterator) text(start *xml.StartElement) string {
	var value string
	if err := it.decoder.DecodeElement(&value, start); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// decodeRaw decodes the element and returns its verbatim bytes from the
// source document.
func (it *iterator) decodeRaw(v any, start *xml.StartElement, startOffset int64) ([]byte, error) {
	if err := it.decoder.DecodeElement(v, start); err != nil {
		return nil, fmt.Errorf("element %s: %w", start.Name.Local, err)
	}
	end := it.decoder.InputOffset()
	raw := bytes.TrimSpace(it.data[startOffset:end])
	return append([]byte(nil), raw...), nil
}

func (it *iterator) push(table string, raw []byte, values map[string]string) {
	it.rows[table]++
	it.pending = append(it.pending, etl.RawRecord{
		Table:  table,
		Row:    it.rows[table],
		Values: values,
		Raw:    raw,
	})
}
