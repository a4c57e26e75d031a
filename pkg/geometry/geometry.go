// Package geometry — jest yolu hesaplamaları (path calculation).
//
// Bu paketteki tüm fonksiyonlar PURE'dur: aynı girdiler her zaman aynı
// çıktıyı üretir, hiçbir package-level state yoktur. Bu bir tasarım
// zorunluluğudur — yön ve hedef nokta jest başında BİR KEZ hesaplanır ve
// cache'lenir; move event'i başına yeniden türetmek yasaktır (frame'ler
// arası deterministik olmayan yön değişimi yaratır).
package geometry

import "github.com/akinalp/swipecall/models"

// edgeMargin, hedef noktanın ekran kenarından içeride bırakıldığı mesafe (px).
// Kilit noktası tam kenarda olursa parmak ekrandan çıkmadan ulaşılamaz.
const edgeMargin = 48.0

// DetermineDirection, jestin hangi ekran kenarına doğru ilerleyeceğini
// sınıflandırır: origin'den en fazla sürükleme alanı bırakan kenar seçilir.
// Kartın ekranın üst yarısındaysa aşağı, sol yarısındaysa sağa gidilir vb.
//
// Eşitlik durumunda sabit öncelik sırası uygulanır (down, up, right, left) —
// determinizm için kritik: aynı origin + bounds her zaman aynı yönü verir.
func DetermineDirection(origin models.Point, bounds models.Bounds) models.Direction {
	roomDown := bounds.Height - origin.Y
	roomUp := origin.Y
	roomRight := bounds.Width - origin.X
	roomLeft := origin.X

	best := models.DirectionDown
	bestRoom := roomDown

	if roomUp > bestRoom {
		best, bestRoom = models.DirectionUp, roomUp
	}
	if roomRight > bestRoom {
		best, bestRoom = models.DirectionRight, roomRight
	}
	if roomLeft > bestRoom {
		best = models.DirectionLeft
	}

	return best
}

// CalculateEndPosition, sürüklemenin "tamamlanmış" sayılması için ulaşılması
// gereken kilit noktasını döner: seçilen yöndeki kenarın edgeMargin kadar
// içinde, diğer eksende origin ile hizalı.
//
// Origin kenara edgeMargin'den yakınsa hedef origin'in gerisine düşmesin diye
// ilgili koordinat origin'e clamp'lenir.
func CalculateEndPosition(origin models.Point, bounds models.Bounds, dir models.Direction) models.Point {
	target := origin

	switch dir {
	case models.DirectionDown:
		target.Y = max(bounds.Height-edgeMargin, origin.Y)
	case models.DirectionUp:
		target.Y = min(edgeMargin, origin.Y)
	case models.DirectionRight:
		target.X = max(bounds.Width-edgeMargin, origin.X)
	case models.DirectionLeft:
		target.X = min(edgeMargin, origin.X)
	}

	return target
}

// Progress, pointer'ın origin→target yolu üzerindeki normalize ilerlemesini
// döner: (pos − origin) vektörünün (target − origin) üzerine skaler
// projeksiyonu, vektörün uzunluğunun karesiyle normalize edilip [0,1]
// aralığına clamp'lenir.
//
// Clamp sayesinde pointer hedefi aşarsa 1.0, origin'in gerisine kaçarsa 0.0
// döner — monotonluk garanti edilmez (kullanıcı geri çekebilir), aralık
// garanti edilir.
//
// Her frame'de çağrılır: O(1), side-effect yok.
func Progress(origin, target, pos models.Point) float64 {
	dx := target.X - origin.X
	dy := target.Y - origin.Y

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		// Dejenere yol (origin == target) — ilerleme tanımsız, 0 kabul edilir.
		return 0
	}

	p := ((pos.X-origin.X)*dx + (pos.Y-origin.Y)*dy) / lenSq

	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
