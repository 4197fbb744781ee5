// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ndtwin.dev/core/internal/ipaddr"
)

// switchFlows is one element of the polled JSON array: a switch's dpid and
// its flow entries. Flows may be a flat array or a dpid-indexed map, per
// spec §4.2/§6.
type switchFlows struct {
	Dpid  uint64          `json:"dpid"`
	Flows json.RawMessage `json:"flows"`
}

type wireFlow struct {
	Priority uint16            `json:"priority"`
	TableID  uint8             `json:"table_id"`
	Match    map[string]any    `json:"match"`
	Actions  []string          `json:"actions"`
	Cookie   *uint64           `json:"cookie,omitempty"` // ignored for identity
}

// ParsedRule is a Rule plus the dpid it applies to.
type ParsedRule struct {
	Dpid uint64
	Rule Rule
}

// ParsePollInput decodes a classifier poll payload, accepting both the
// flat-array and dpid-indexed flows shapes, and both OpenFlow 1.0 and 1.3
// field names. Malformed masks and unknown field names are dropped (not
// fatal); the returned warnings slice names every dropped rule (spec §4.2
// Failure modes).
func ParsePollInput(data []byte) (rules []ParsedRule, warnings []string) {
	var switches []switchFlows
	if err := json.Unmarshal(data, &switches); err != nil {
		warnings = append(warnings, fmt.Sprintf("malformed poll input: %v", err))
		return nil, warnings
	}

	for _, sw := range switches {
		flows, flowWarnings := decodeFlows(sw.Flows, sw.Dpid)
		warnings = append(warnings, flowWarnings...)
		for _, f := range flows {
			rule, warn := parseFlow(f)
			if warn != "" {
				warnings = append(warnings, warn)
				continue
			}
			rules = append(rules, ParsedRule{Dpid: sw.Dpid, Rule: rule})
		}
	}
	return rules, warnings
}

func decodeFlows(raw json.RawMessage, dpid uint64) ([]wireFlow, []string) {
	if len(raw) == 0 {
		return nil, nil
	}

	var flat []wireFlow
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var indexed map[string][]wireFlow
	if err := json.Unmarshal(raw, &indexed); err == nil {
		key := strconv.FormatUint(dpid, 10)
		return indexed[key], nil
	}

	return nil, []string{fmt.Sprintf("dpid %d: unrecognised flows shape", dpid)}
}

// parseFlow converts a wire flow into a Rule. On failure it returns a
// human-readable warning and a zero Rule; the caller drops the rule.
func parseFlow(f wireFlow) (Rule, string) {
	value := MatchFields{}
	mask := MatchFields{}

	for field, raw := range f.Match {
		if err := applyMatchField(field, raw, &value, &mask); err != nil {
			return Rule{}, fmt.Sprintf("dropping rule (priority %d): %v", f.Priority, err)
		}
	}

	effect, err := parseActions(f.Actions)
	if err != nil {
		return Rule{}, fmt.Sprintf("dropping rule (priority %d): %v", f.Priority, err)
	}

	r := Rule{
		Priority: f.Priority,
		Mask:     mask,
		Value:    value.And(mask),
		Effect:   effect,
		TableID:  f.TableID,
	}
	r.CoreHash = coreHash(r.Priority, r.Mask, r.Value, r.Effect)
	return r, ""
}

// applyMatchField recognises both OpenFlow 1.0 and 1.3 field names and
// returns an error for any other match key. Flow-level counters
// (byte_count, packet_count, duration_sec, ...) never reach it: they are
// not fields of wireFlow and are dropped when the flow is decoded.
func applyMatchField(field string, raw any, value, mask *MatchFields) error {
	switch field {
	case "in_port":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("in_port: %w", err)
		}
		value.InPort = uint32(v)
		mask.InPort = 0xFFFFFFFF

	case "dl_type", "eth_type":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.EthType = uint16(v)
		mask.EthType = 0xFFFF

	case "dl_vlan", "vlan_vid":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.Vlan = uint16(v)
		mask.Vlan = 0xFFFF

	case "metadata":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
		value.Metadata = v
		mask.Metadata = ^uint64(0)

	case "nw_dst", "ipv4_dst":
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", field)
		}
		net, m, err := ipaddr.ParseCIDROrIP(s)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.DstIP = net
		mask.DstIP = m

	case "nw_src", "ipv4_src":
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", field)
		}
		net, m, err := ipaddr.ParseCIDROrIP(s)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.SrcIP = net
		mask.SrcIP = m

	case "nw_proto", "ip_proto":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.Protocol = uint8(v)
		mask.Protocol = 0xFF

	case "tp_src", "tcp_src", "udp_src":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.SrcPort = uint16(v)
		mask.SrcPort = 0xFFFF

	case "tp_dst", "tcp_dst", "udp_dst":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value.DstPort = uint16(v)
		mask.DstPort = 0xFFFF

	case "icmp_type":
		v, err := toUint(raw)
		if err != nil {
			return fmt.Errorf("icmp_type: %w", err)
		}
		value.ICMPType = uint8(v)
		mask.ICMPType = 0xFF

	default:
		return fmt.Errorf("unknown match field %q", field)
	}
	return nil
}

func toUint(raw any) (uint64, error) {
	switch v := raw.(type) {
	case float64:
		return uint64(v), nil
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
		if s != v {
			n, err := strconv.ParseUint(s, 16, 64)
			return n, err
		}
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}

// parseActions turns "OUTPUT:<port>" / "GROUP:<id>" strings into an
// Effect. A "goto" action (GOTO:<table>) is also accepted.
func parseActions(actions []string) (Effect, error) {
	var eff Effect
	for _, a := range actions {
		parts := strings.SplitN(a, ":", 2)
		if len(parts) != 2 {
			return Effect{}, fmt.Errorf("malformed action %q", a)
		}
		verb, arg := strings.ToUpper(parts[0]), parts[1]
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return Effect{}, fmt.Errorf("action %q: %w", a, err)
		}
		switch verb {
		case "OUTPUT":
			eff.OutputPorts = append(eff.OutputPorts, uint32(n))
		case "GROUP":
			id := uint32(n)
			eff.GroupID = &id
		case "GOTO":
			t := uint8(n)
			eff.GotoTable = &t
		default:
			return Effect{}, fmt.Errorf("unknown action verb %q", verb)
		}
	}
	return eff, nil
}
