package capture

import (
	"encoding/json"
	"fmt"
)

// The page's readiness globals may not be attached yet right after a
// navigation, so flag and counter reads swallow ReferenceErrors.

func flagExpr(expr string) string {
	return fmt.Sprintf(`(function() { try { return Boolean(%s); } catch (e) { return false; } })()`, expr)
}

func generationExpr(expr string) string {
	return fmt.Sprintf(`(function() {
	try {
		var g = Number(%s);
		return isFinite(g) ? g : -1;
	} catch (e) {
		return -1;
	}
})()`, expr)
}

func stringExpr(expr string) string {
	return fmt.Sprintf(`String(%s)`, expr)
}

// nextExpr asks the page for the URL of the next item without navigating.
// Presence is decided by explicit checks so that a zero-valued result is
// still reported as found.
func nextExpr(loadNext, filter string) string {
	quoted, _ := json.Marshal(filter)
	return fmt.Sprintf(`(function() {
	var u = %s(%s, true);
	var present = !(u === null || u === undefined || u === false || u === "");
	return {present: present, url: present ? String(u) : ""};
})()`, loadNext, quoted)
}

// canvasExpr wraps the page's raster callable so the pixel data crosses the
// protocol as base64 instead of a JSON number array.
func canvasExpr(canvasData string) string {
	return fmt.Sprintf(`(function() {
	var d = %s;
	var bytes = d.data instanceof Uint8Array ? d.data : Uint8Array.from(d.data);
	var parts = [];
	for (var i = 0; i < bytes.length; i += 0x8000) {
		parts.push(String.fromCharCode.apply(null, bytes.subarray(i, i + 0x8000)));
	}
	return {width: d.width, height: d.height, length: bytes.length, data: btoa(parts.join(""))};
})()`, canvasData)
}
