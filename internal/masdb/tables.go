package masdb

// LinearNoteTable maps a note index (C-0 to B-9) to a 16.16 frequency ratio.
// C-5 (note 60) is 1.0.
var LinearNoteTable = [120]uint32{
	2048, 2170, 2299, 2435, 2580, 2734,
	2896, 3069, 3251, 3444, 3649, 3866,
	4096, 4340, 4598, 4871, 5161, 5468,
	5793, 6137, 6502, 6889, 7298, 7732,
	8192, 8679, 9195, 9742, 10321, 10935,
	11585, 12274, 13004, 13777, 14596, 15464,
	16384, 17358, 18390, 19484, 20643, 21870,
	23170, 24548, 26008, 27554, 29193, 30929,
	32768, 34716, 36781, 38968, 41285, 43740,
	46341, 49097, 52016, 55109, 58386, 61858,
	65536, 69433, 73562, 77936, 82570, 87480,
	92682, 98193, 104032, 110218, 116772, 123715,
	131072, 138866, 147123, 155872, 165140, 174960,
	185364, 196386, 208064, 220436, 233544, 247431,
	262144, 277732, 294247, 311744, 330281, 349920,
	370728, 392772, 416128, 440872, 467088, 494862,
	524288, 555464, 588493, 623487, 660561, 699841,
	741455, 785544, 832255, 881744, 934175, 989724,
	1048576, 1110928, 1176987, 1246974, 1321123, 1399681,
	1482910, 1571089, 1664511, 1763488, 1868350, 1979448,
}

// AmigaPeriodTable holds the octave 0 periods scaled by 8.
var AmigaPeriodTable = [12]uint32{
	1712 * 8, 1616 * 8, 1524 * 8, 1440 * 8, 1356 * 8, 1280 * 8,
	1208 * 8, 1140 * 8, 1076 * 8, 1016 * 8, 960 * 8, 907 * 8,
}

// AmigaPeriodScale is multiplied with AmigaPeriodTable entries before
// the octave shift and tuning division.
const AmigaPeriodScale = 133808

// LinearSlideUpTable holds 2^(v/192)-1 in 16.16 fixed point.
// Slides of 192 and above double the period first and index with v-192.
var LinearSlideUpTable = [192]uint32{
	0, 237, 475, 714, 953, 1194, 1435, 1677,
	1920, 2164, 2409, 2655, 2902, 3149, 3397, 3647,
	3897, 4148, 4400, 4653, 4907, 5162, 5417, 5674,
	5932, 6190, 6449, 6710, 6971, 7233, 7496, 7761,
	8026, 8292, 8559, 8827, 9096, 9366, 9636, 9908,
	10181, 10455, 10730, 11006, 11283, 11560, 11839, 12119,
	12400, 12682, 12965, 13249, 13533, 13819, 14106, 14394,
	14684, 14974, 15265, 15557, 15850, 16145, 16440, 16737,
	17034, 17333, 17633, 17933, 18235, 18538, 18842, 19147,
	19454, 19761, 20070, 20379, 20690, 21002, 21315, 21629,
	21944, 22260, 22578, 22897, 23216, 23537, 23860, 24183,
	24507, 24833, 25160, 25488, 25817, 26148, 26479, 26812,
	27146, 27481, 27818, 28155, 28494, 28834, 29175, 29518,
	29862, 30207, 30553, 30900, 31249, 31599, 31951, 32303,
	32657, 33012, 33369, 33726, 34085, 34446, 34807, 35170,
	35534, 35900, 36267, 36635, 37004, 37375, 37747, 38121,
	38496, 38872, 39250, 39629, 40009, 40391, 40774, 41158,
	41544, 41932, 42320, 42710, 43102, 43495, 43889, 44285,
	44682, 45081, 45481, 45882, 46285, 46690, 47095, 47503,
	47912, 48322, 48734, 49147, 49562, 49978, 50396, 50815,
	51236, 51658, 52082, 52507, 52934, 53363, 53793, 54224,
	54658, 55092, 55529, 55966, 56406, 56847, 57289, 57734,
	58179, 58627, 59076, 59527, 59979, 60433, 60889, 61346,
	61805, 62265, 62727, 63191, 63657, 64124, 64593, 65064,
}

// LinearSlideDownTable holds 2^(-v/192) in 16.16 fixed point.
var LinearSlideDownTable = [257]uint32{
	65536, 65300, 65065, 64830, 64596, 64364, 64132, 63901,
	63670, 63441, 63212, 62984, 62757, 62531, 62306, 62081,
	61858, 61635, 61413, 61191, 60971, 60751, 60532, 60314,
	60097, 59880, 59664, 59449, 59235, 59022, 58809, 58597,
	58386, 58176, 57966, 57757, 57549, 57341, 57135, 56929,
	56724, 56519, 56316, 56113, 55911, 55709, 55508, 55308,
	55109, 54910, 54713, 54515, 54319, 54123, 53928, 53734,
	53540, 53347, 53155, 52963, 52773, 52582, 52393, 52204,
	52016, 51829, 51642, 51456, 51270, 51085, 50901, 50718,
	50535, 50353, 50172, 49991, 49811, 49631, 49452, 49274,
	49097, 48920, 48743, 48568, 48393, 48218, 48044, 47871,
	47699, 47527, 47356, 47185, 47015, 46846, 46677, 46509,
	46341, 46174, 46008, 45842, 45677, 45512, 45348, 45185,
	45022, 44859, 44698, 44537, 44376, 44216, 44057, 43898,
	43740, 43582, 43425, 43269, 43113, 42958, 42803, 42649,
	42495, 42342, 42189, 42037, 41886, 41735, 41584, 41434,
	41285, 41136, 40988, 40840, 40693, 40547, 40400, 40255,
	40110, 39965, 39821, 39678, 39535, 39392, 39250, 39109,
	38968, 38828, 38688, 38548, 38409, 38271, 38133, 37996,
	37859, 37722, 37586, 37451, 37316, 37181, 37047, 36914,
	36781, 36648, 36516, 36385, 36254, 36123, 35993, 35863,
	35734, 35605, 35477, 35349, 35221, 35095, 34968, 34842,
	34716, 34591, 34467, 34343, 34219, 34095, 33973, 33850,
	33728, 33607, 33486, 33365, 33245, 33125, 33005, 32887,
	32768, 32650, 32532, 32415, 32298, 32182, 32066, 31950,
	31835, 31720, 31606, 31492, 31379, 31266, 31153, 31041,
	30929, 30817, 30706, 30596, 30485, 30376, 30266, 30157,
	30048, 29940, 29832, 29725, 29618, 29511, 29405, 29299,
	29193, 29088, 28983, 28879, 28774, 28671, 28567, 28464,
	28362, 28260, 28158, 28056, 27955, 27855, 27754, 27654,
	27554, 27455, 27356, 27258, 27159, 27062, 26964, 26867,
	26770, 26674, 26577, 26482, 26386, 26291, 26196, 26102,
	26008,
}

// FineLinearSlideUpTable holds 2^(v/768)-1 in 16.16 fixed point.
var FineLinearSlideUpTable = [16]uint32{
	0, 59, 118, 178, 237, 296, 356, 415,
	475, 535, 594, 654, 714, 773, 833, 893,
}

// FineLinearSlideDownTable holds 2^(-v/768) in 16.16 fixed point.
var FineLinearSlideDownTable = [16]uint32{
	65536, 65477, 65418, 65359, 65300, 65241, 65182, 65123,
	65065, 65006, 64947, 64889, 64830, 64772, 64713, 64655,
}

// FineSine is one period of a sine wave with amplitude 64.
var FineSine = [256]int8{
	0, 2, 3, 5, 6, 8, 9, 11, 12, 14, 16, 17, 19, 20, 22, 23,
	24, 26, 27, 29, 30, 32, 33, 34, 36, 37, 38, 39, 41, 42, 43, 44,
	45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 56, 57, 58, 59,
	59, 60, 60, 61, 61, 62, 62, 62, 63, 63, 63, 64, 64, 64, 64, 64,
	64, 64, 64, 64, 64, 64, 63, 63, 63, 62, 62, 62, 61, 61, 60, 60,
	59, 59, 58, 57, 56, 56, 55, 54, 53, 52, 51, 50, 49, 48, 47, 46,
	45, 44, 43, 42, 41, 39, 38, 37, 36, 34, 33, 32, 30, 29, 27, 26,
	24, 23, 22, 20, 19, 17, 16, 14, 12, 11, 9, 8, 6, 5, 3, 2,
	0, -2, -3, -5, -6, -8, -9, -11, -12, -14, -16, -17, -19, -20, -22, -23,
	-24, -26, -27, -29, -30, -32, -33, -34, -36, -37, -38, -39, -41, -42, -43, -44,
	-45, -46, -47, -48, -49, -50, -51, -52, -53, -54, -55, -56, -56, -57, -58, -59,
	-59, -60, -60, -61, -61, -62, -62, -62, -63, -63, -63, -64, -64, -64, -64, -64,
	-64, -64, -64, -64, -64, -64, -63, -63, -63, -62, -62, -62, -61, -61, -60, -60,
	-59, -59, -58, -57, -56, -56, -55, -54, -53, -52, -51, -50, -49, -48, -47, -46,
	-45, -44, -43, -42, -41, -39, -38, -37, -36, -34, -33, -32, -30, -29, -27, -26,
	-24, -23, -22, -20, -19, -17, -16, -14, -12, -11, -9, -8, -6, -5, -3, -2,
}
